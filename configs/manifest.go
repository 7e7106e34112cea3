package configs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the on-disk form of the precache manifest.
//
//	version: 2
//	paths:
//	  - /
//	  - /index.html
type ManifestFile struct {
	Version int      `yaml:"version"`
	Paths   []string `yaml:"paths"`
}

// LoadManifest reads a YAML manifest file. A non-zero version overrides CACHE_VERSION.
func LoadManifest(path string) (*ManifestFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return ParseManifest(raw)
}

// ParseManifest decodes manifest YAML.
func ParseManifest(raw []byte) (*ManifestFile, error) {
	var mf ManifestFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if mf.Version < 0 {
		return nil, fmt.Errorf("manifest version must not be negative")
	}
	if len(mf.Paths) == 0 {
		return nil, fmt.Errorf("manifest has no paths")
	}
	return &mf, nil
}

// ResolveManifest returns the store version and precache paths in effect.
// Without CACHE_MANIFEST_FILE the paths are nil and the built-in manifest applies.
func (c *CacheConfig) ResolveManifest() (int, []string, error) {
	if c.ManifestFile == "" {
		return c.Version, nil, nil
	}
	mf, err := LoadManifest(c.ManifestFile)
	if err != nil {
		return 0, nil, err
	}
	version := c.Version
	if mf.Version > 0 {
		version = mf.Version
	}
	return version, mf.Paths, nil
}
