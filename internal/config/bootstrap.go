package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"leadcrm-engine/internal/rawsource"
)

const (
	UserConfigName  = "config.yml"
	MappingFileName = "mapping.yml"
)

// EnsureUserConfig seeds dataDir on first run: config.yml from defaultPath
// and mapping.yml from the built-in scraper mapping. Existing files are kept.
// It returns the user config path.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	userPath := filepath.Join(dataDir, UserConfigName)

	missing, err := isMissing(userPath)
	if err != nil {
		return "", err
	}
	if missing {
		b, err := os.ReadFile(defaultPath)
		if err != nil {
			return "", err
		}
		// never seed a default the engine could not load back
		var probe Config
		if err := yaml.Unmarshal(b, &probe); err != nil {
			return "", fmt.Errorf("default config %s: %w", defaultPath, err)
		}
		if err := writeFileAtomic(userPath, b, false); err != nil {
			return "", err
		}
	}

	if err := ensureMappingFile(filepath.Join(dataDir, MappingFileName)); err != nil {
		return "", err
	}
	return userPath, nil
}

func ensureMappingFile(path string) error {
	missing, err := isMissing(path)
	if err != nil || !missing {
		return err
	}
	b, err := yaml.Marshal(MappingFile{RawMapping: rawsource.DefaultMapping})
	if err != nil {
		return err
	}
	header := []byte("# Scraper column key -> roster column. Edit when the results page changes classes.\n")
	return writeFileAtomic(path, append(header, b...), false)
}

func isMissing(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	return false, err
}
