// Package bootstrap scaffolds a starter capability config for a project.
package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
)

// StarterConfig grants nothing beyond what every script needs to start.
const StarterConfig = `{
  // Capabilities granted to scripts started with "cordon run".
  // Paths are absolute or relative to this directory; directories are granted recursively.
  "permissions": {
    "fs": {
      "read": [],
      "write": []
    },
    "net": [],
    "worker": false,
    "child-process": false,
    "wasi": false,
    "inspector": false
  }
}
`

// Initialize writes StarterConfig to path unless a file already exists there.
// It reports whether the file was created.
func Initialize(path string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create directory %q: %w", filepath.Dir(path), err)
	}
	return writeFileIfMissing(path, StarterConfig)
}

func writeFileIfMissing(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %q: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write file %q: %w", path, err)
	}
	return true, nil
}
