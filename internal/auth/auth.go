// Package auth stores and resolves the Notion API key. The OS keyring is
// the primary store; environment variables and a local .env file are the
// fallbacks for non-interactive use.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/99designs/keyring"
	"github.com/joho/godotenv"

	clierrors "github.com/sariola/notion2prompt/internal/errors"
)

const (
	// ServiceName is the keyring service name.
	ServiceName = "notion2prompt"
	// KeyName is the keyring key the token is stored under.
	KeyName = "notion-api-key"
	// EnvVarName is the primary environment variable for the token.
	EnvVarName = "NOTION_API_KEY"
	// AltEnvVarName is the secondary environment variable, shared with
	// other Notion tooling.
	AltEnvVarName = "NOTION_TOKEN"
)

// openKeyring is swappable for tests.
var openKeyring = func() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName:              ServiceName,
		FileDir:                  keyringFileDir(),
		FilePasswordFunc:         keyring.FixedStringPrompt(ServiceName),
		KeychainTrustApplication: true,
	})
}

func keyringFileDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		configDir = os.Getenv("HOME")
	}
	return filepath.Join(configDir, ServiceName, "keyring")
}

// LoadDotEnv loads a .env file from the working directory when present.
// Missing files are not an error.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Token resolves the API key: keyring first, then environment variables.
// LoadDotEnv should run before this so .env values reach the environment.
func Token() (string, error) {
	if ring, err := openKeyring(); err == nil {
		if item, err := ring.Get(KeyName); err == nil && len(item.Data) > 0 {
			return string(item.Data), nil
		}
	}

	for _, name := range []string{EnvVarName, AltEnvVarName} {
		if token := strings.TrimSpace(os.Getenv(name)); token != "" {
			return token, nil
		}
	}

	return "", clierrors.AuthRequiredError(errors.New("no API key found"))
}

// Source reports where the token would be resolved from, for status
// output.
func Source() string {
	if ring, err := openKeyring(); err == nil {
		if item, err := ring.Get(KeyName); err == nil && len(item.Data) > 0 {
			return "keyring"
		}
	}
	for _, name := range []string{EnvVarName, AltEnvVarName} {
		if strings.TrimSpace(os.Getenv(name)) != "" {
			return "env:" + name
		}
	}
	return "none"
}

// SaveToken stores the API key in the keyring.
func SaveToken(token string) error {
	ring, err := openKeyring()
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring.Set(keyring.Item{
		Key:   KeyName,
		Data:  []byte(token),
		Label: "Notion API key for n2p",
	})
}

// DeleteToken removes the API key from the keyring.
func DeleteToken() error {
	ring, err := openKeyring()
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}
	err = ring.Remove(KeyName)
	if err != nil && errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}
