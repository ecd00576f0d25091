package config

import (
	"os"
	"path/filepath"
)

// CatalogDir is the per-project directory holding catalog.yaml.
const CatalogDir = ".tally"

// ResolveCatalogPath picks the catalog file to load: the configured path,
// else the nearest project catalog above the working directory, else the
// catalog next to config.yaml. The returned file may not exist.
func ResolveCatalogPath(cfg Config) string {
	if cfg.Catalog != "" {
		return cfg.Catalog
	}
	if dir, err := os.Getwd(); err == nil {
		if path, ok := findCatalog(dir); ok {
			return path
		}
	}
	if dir := ConfigDir(); dir != "" {
		return filepath.Join(dir, "catalog.yaml")
	}
	return ""
}

// findCatalog walks up from dir looking for .tally/catalog.yaml.
func findCatalog(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		candidate := filepath.Join(dir, CatalogDir, "catalog.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}
