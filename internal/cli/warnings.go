package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/neoclaw-ai/cordon/internal/config"
	"github.com/neoclaw-ai/cordon/internal/grants"
	"github.com/neoclaw-ai/cordon/internal/logging"
	"github.com/neoclaw-ai/cordon/internal/sandbox"
)

// Emit startup warnings derived from non-fatal config/runtime conditions.
func warnStartupConditions(cfg *config.Config, env grants.Environment) {
	if cfg == nil {
		return
	}

	logger := logging.Logger()
	if sandbox.IsCordoned() {
		logger.Warn("cordon is running inside a cordoned process; the outer grants still bound the child")
	}

	declared := map[string][]string{
		"fs.read":  cfg.Permissions.FS.Read,
		"fs.write": cfg.Permissions.FS.Write,
	}
	for _, field := range []string{"fs.read", "fs.write"} {
		for _, p := range declared[field] {
			resolved := p
			if !filepath.IsAbs(resolved) {
				resolved = filepath.Join(env.WorkDir, resolved)
			}
			_, err := os.Stat(resolved)
			switch {
			case err == nil:
			case errors.Is(err, fs.ErrNotExist):
				logger.Warn("declared path does not exist; granting it as a plain path", "field", field, "path", resolved)
			default:
				logger.Warn("declared path cannot be inspected; granting it as a plain path", "field", field, "path", resolved, "err", err)
			}
		}
	}
}
