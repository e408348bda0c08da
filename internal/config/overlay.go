// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// MappingFile lets a user retarget the scraper's column keys without
// touching the main config, e.g. after the results page changes classes.
type MappingFile struct {
	RawMapping map[string]string `yaml:"raw_mapping"`
}

func OverlayMapping(cfg *Config, mappingPath string) error {
	b, err := os.ReadFile(mappingPath)
	if err != nil {
		// Missing mapping file should not kill startup
		return nil
	}

	var mf MappingFile
	if err := yaml.Unmarshal(b, &mf); err != nil {
		return err
	}

	if len(mf.RawMapping) > 0 {
		cfg.Store.RawMapping = mf.RawMapping
	}
	return nil
}
