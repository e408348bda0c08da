package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"leadcrm-engine/internal/config"
	"leadcrm-engine/internal/store"
)

// dataDirFromEnv is where the roster, config and lock live. The desktop
// shell passes LEADCRM_DATA_DIR; a bare run uses the working directory.
func dataDirFromEnv() (string, error) {
	dir := os.Getenv("LEADCRM_DATA_DIR")
	if dir == "" {
		dir = "."
	}
	return dir, os.MkdirAll(dir, 0o755)
}

// openBackend picks the roster storage named by store.format.
func openBackend(cfg config.Config) (store.Backend, error) {
	path := cfg.StorePath()
	switch cfg.Store.Format {
	case "sqlite":
		be, err := store.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite roster %s: %w", path, err)
		}
		return be, nil
	case "", "csv":
		return store.NewCSVFile(path), nil
	default:
		return nil, fmt.Errorf("unknown store format %q", cfg.Store.Format)
	}
}

func shutdownToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
