package model

import (
	"os"
	"path/filepath"
)

// defaultCacheDir resolves ~/.riskpoint/cache, falling back to the temp dir
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "riskpoint-cache")
	}
	return filepath.Join(home, ".riskpoint", "cache")
}
