package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"leadcrm-engine/internal/config"
)

const (
	// "Service" groups the app's secrets in the OS keychain.
	KeyringService = "leadcrm"
)

var ErrNoKey = errors.New("geocoder API key not found in keychain")

func GetGeocoderKey(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		key, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(key) != "" {
			return key, nil
		}
	}
	return "", ErrNoKey
}

func SetGeocoderKey(keyringAccount string, key string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("key is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, key)
}

func DeleteGeocoderKey(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

// GeocoderKeyringAccount names the keychain entry for the configured
// endpoint, so switching mirrors does not reuse another provider's key.
func GeocoderKeyringAccount(cfg config.Config) string {
	if a := strings.TrimSpace(cfg.Geocode.KeyringAccount); a != "" {
		return a
	}
	base := strings.TrimSpace(cfg.Geocode.BaseURL)
	if base == "" {
		base = "default"
	}
	return fmt.Sprintf("leadcrm:geocoder:%s", base)
}
