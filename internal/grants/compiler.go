package grants

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/neoclaw-ai/cordon/internal/config"
	"github.com/neoclaw-ai/cordon/internal/store"
)

// DependencyDirName is the package directory every script and loader imports from.
const DependencyDirName = "node_modules"

// Environment holds the host facts grant compilation depends on.
type Environment struct {
	// WorkDir is the invocation directory; relative paths resolve against it.
	WorkDir string
	// RuntimeDir is the directory holding the host runtime executable.
	RuntimeDir string
	// TempDir is the system temp directory, used by the loader's cache.
	TempDir string
	// IsDir reports whether a path is an existing directory. Nil uses store.IsDir.
	IsDir func(path string) bool
}

// DetectEnvironment captures the current process's environment facts for a
// host runtime installed at runtimePath.
func DetectEnvironment(runtimePath string) (Environment, error) {
	workDir, err := os.Getwd()
	if err != nil {
		return Environment{}, fmt.Errorf("resolve working directory: %w", err)
	}
	return Environment{
		WorkDir:    workDir,
		RuntimeDir: filepath.Dir(runtimePath),
		TempDir:    os.TempDir(),
	}, nil
}

// Compile derives the grants a script needs under perms. It never fails:
// absent fields grant nothing and paths that cannot be inspected are granted
// as plain, non-recursive paths.
//
// Emission order is the permission switch, the loader import, subsystem
// toggles, filesystem reads, filesystem writes, then network hosts.
func Compile(perms config.Permissions, script string, env Environment) Set {
	c := compiler{env: env}
	mode := DetectMode(script)

	out := []Grant{{Kind: KindPermission}}
	if mode == ModeTranspiled {
		out = append(out, Grant{Kind: KindImport, Value: LoaderModule})
	}
	for _, rule := range toggleRules {
		if rule.grants(mode, perms) {
			out = append(out, Grant{Kind: rule.kind})
		}
	}

	reads := []string{c.accessPath(filepath.Join(env.WorkDir, DependencyDirName))}
	if env.RuntimeDir != "" {
		reads = append(reads, c.accessPath(env.RuntimeDir))
	}
	reads = append(reads, c.resolve(script))
	if mode == ModeTranspiled {
		// Compiled-output cache and project config lookup.
		reads = append(reads, recursive(env.TempDir), filepath.Clean(env.WorkDir))
	}
	for _, p := range perms.FS.Read {
		reads = append(reads, c.accessPath(c.resolve(p)))
	}
	for _, p := range reads {
		out = append(out, Grant{Kind: KindFSRead, Value: p})
	}

	var writes []string
	if mode == ModeTranspiled {
		writes = append(writes, recursive(env.TempDir))
	}
	for _, p := range perms.FS.Write {
		writes = append(writes, c.accessPath(c.resolve(p)))
	}
	for _, p := range writes {
		out = append(out, Grant{Kind: KindFSWrite, Value: p})
	}

	for _, host := range perms.Net {
		out = append(out, Grant{Kind: KindNet, Value: host})
	}

	return NewSet(out...)
}

type compiler struct {
	env Environment
}

// resolve makes p absolute against the working directory.
func (c compiler) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.env.WorkDir, p)
}

// accessPath marks directories for recursive access. Paths that do not exist
// or cannot be inspected stay plain.
func (c compiler) accessPath(p string) string {
	isDir := c.env.IsDir
	if isDir == nil {
		isDir = store.IsDir
	}
	if isDir(p) {
		return recursive(p)
	}
	return p
}

func recursive(dir string) string {
	return strings.TrimSuffix(filepath.Clean(dir), "/") + "/"
}
