package auth

import (
	"testing"

	"github.com/99designs/keyring"

	clierrors "github.com/sariola/notion2prompt/internal/errors"
)

// withArrayKeyring swaps the keyring for an in-memory one.
func withArrayKeyring(t *testing.T) keyring.Keyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	orig := openKeyring
	openKeyring = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { openKeyring = orig })
	return ring
}

func TestToken_FromKeyring(t *testing.T) {
	withArrayKeyring(t)
	t.Setenv(EnvVarName, "")
	t.Setenv(AltEnvVarName, "")

	if err := SaveToken("secret_from_keyring_0001"); err != nil {
		t.Fatal(err)
	}

	token, err := Token()
	if err != nil {
		t.Fatal(err)
	}
	if token != "secret_from_keyring_0001" {
		t.Errorf("token = %q", token)
	}
	if Source() != "keyring" {
		t.Errorf("source = %q", Source())
	}
}

func TestToken_EnvFallback(t *testing.T) {
	withArrayKeyring(t)
	t.Setenv(EnvVarName, "")
	t.Setenv(AltEnvVarName, "secret_from_env_00000001")

	token, err := Token()
	if err != nil {
		t.Fatal(err)
	}
	if token != "secret_from_env_00000001" {
		t.Errorf("token = %q", token)
	}
	if Source() != "env:"+AltEnvVarName {
		t.Errorf("source = %q", Source())
	}
}

func TestToken_Missing(t *testing.T) {
	withArrayKeyring(t)
	t.Setenv(EnvVarName, "")
	t.Setenv(AltEnvVarName, "")

	_, err := Token()
	if err == nil {
		t.Fatal("expected error with no token anywhere")
	}
	if !clierrors.IsAuthError(err) {
		t.Errorf("error type = %T", err)
	}
	if Source() != "none" {
		t.Errorf("source = %q", Source())
	}
}

func TestDeleteToken(t *testing.T) {
	withArrayKeyring(t)
	t.Setenv(EnvVarName, "")
	t.Setenv(AltEnvVarName, "")

	if err := SaveToken("secret_to_delete_000001"); err != nil {
		t.Fatal(err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatal(err)
	}
	if _, err := Token(); err == nil {
		t.Error("token should be gone")
	}
	// Deleting twice is not an error.
	if err := DeleteToken(); err != nil {
		t.Errorf("second delete = %v", err)
	}
}
