package grants

import (
	"path/filepath"

	"github.com/neoclaw-ai/cordon/internal/config"
)

// Mode is how the host runtime executes the target script.
type Mode int

const (
	// ModeNative scripts run directly on the host runtime.
	ModeNative Mode = iota
	// ModeTranspiled scripts need the in-process loader before they can run.
	ModeTranspiled
)

// String returns the mode name used in diagnostics.
func (m Mode) String() string {
	if m == ModeTranspiled {
		return "transpiled"
	}
	return "native"
}

// LoaderModule is the loader preloaded for transpiled scripts.
const LoaderModule = "tsx/esm"

var transpiledExtensions = map[string]struct{}{
	".ts":  {},
	".tsx": {},
}

// DetectMode picks the execution mode from the script's extension alone.
func DetectMode(script string) Mode {
	if _, ok := transpiledExtensions[filepath.Ext(script)]; ok {
		return ModeTranspiled
	}
	return ModeNative
}

type toggleSource int

const (
	// fromConfig grants the subsystem only when the config toggle is on.
	fromConfig toggleSource = iota
	// always grants the subsystem whatever the config says.
	always
)

type toggleRule struct {
	kind    Kind
	enabled func(config.Permissions) bool
	modes   map[Mode]toggleSource
}

// toggleRules maps (mode, toggle) to a grant decision, in emission order.
// The loader's hooks run on a worker thread, so transpiled mode always needs the worker grant.
var toggleRules = []toggleRule{
	{
		kind:    KindWorker,
		enabled: func(p config.Permissions) bool { return p.Worker },
		modes:   map[Mode]toggleSource{ModeNative: fromConfig, ModeTranspiled: always},
	},
	{
		kind:    KindChildProcess,
		enabled: func(p config.Permissions) bool { return p.ChildProcess },
		modes:   map[Mode]toggleSource{ModeNative: fromConfig, ModeTranspiled: fromConfig},
	},
	{
		kind:    KindWASI,
		enabled: func(p config.Permissions) bool { return p.WASI },
		modes:   map[Mode]toggleSource{ModeNative: fromConfig, ModeTranspiled: fromConfig},
	},
	{
		kind:    KindInspector,
		enabled: func(p config.Permissions) bool { return p.Inspector },
		modes:   map[Mode]toggleSource{ModeNative: fromConfig, ModeTranspiled: fromConfig},
	},
}

func (r toggleRule) grants(mode Mode, perms config.Permissions) bool {
	switch r.modes[mode] {
	case always:
		return true
	default:
		return r.enabled(perms)
	}
}
