package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the manifest name looked up when none is given.
const DefaultConfigFile = "grapholex.yaml"

// LoadManifest loads and validates a project manifest. Relative image
// and profile paths are resolved against the manifest directory.
// If the file does not exist, it returns ErrManifestNotFound.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided manifest path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrManifestNotFound
		}
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	m.dir = dir
	return &m, nil
}

// FindConfigFile searches for the manifest in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for grapholex.yaml in the current directory
// 3. Look for grapholex.yaml in the XDG config directory
//
// Returns the path to the manifest if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}
