package config

import "path/filepath"

// FileName is the capability document looked up in the invocation directory.
const FileName = "cordon.config.json"

// DefaultPath returns the config path for an invocation started in workDir.
func DefaultPath(workDir string) string {
	return filepath.Join(workDir, FileName)
}
