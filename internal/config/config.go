// engine/internal/config/config.go
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Store struct {
		// File is the persisted roster, relative to the data dir unless absolute.
		File   string `yaml:"file"`
		Format string `yaml:"format"` // csv | sqlite
		// RawPath is the scraped export the roster is built and reconciled from.
		RawPath    string            `yaml:"raw_path"`
		RawMapping map[string]string `yaml:"raw_mapping,omitempty"`
	} `yaml:"store"`

	Filter struct {
		RadiusKm     float64 `yaml:"radius_km"`
		OnlineMarker string  `yaml:"online_marker"`
	} `yaml:"filter"`

	Geocode struct {
		Enabled        bool    `yaml:"enabled"`
		BaseURL        string  `yaml:"base_url"`
		UserAgent      string  `yaml:"user_agent"`
		QuerySuffix    string  `yaml:"query_suffix"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		RatePerSec     float64 `yaml:"rate_per_sec"`
		KeyringAccount string  `yaml:"keyring_account"`
	} `yaml:"geocode"`

	Sessions struct {
		IdleMinutes int `yaml:"idle_minutes"`
	} `yaml:"sessions"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Resolve joins p onto the data dir unless it is empty or absolute.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}

func (c Config) StorePath() string { return c.Resolve(c.Store.File) }
func (c Config) RawPath() string   { return c.Resolve(c.Store.RawPath) }
