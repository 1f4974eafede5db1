// Package credentials provides secure storage for the Zulip API key.
// The key is kept in the system keyring:
// - macOS: Keychain
// - Windows: Credential Manager
// - Linux: Secret Service (libsecret)
//
// For CI and headless environments, set IETF2VCON_ZULIP_API_KEY instead.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the system keyring.
	keyringService = "ietf2vcon"
	// keyringUser is the account name for the Zulip API key entry.
	keyringUser = "zulip-api-key"

	// EnvZulipAPIKey overrides the keyring when set.
	EnvZulipAPIKey = "IETF2VCON_ZULIP_API_KEY"
)

// Common errors.
var (
	// ErrNoCredentials is returned when no API key is stored.
	ErrNoCredentials = errors.New("no credentials stored")
	// ErrKeyringUnavailable indicates the system keyring is not available.
	ErrKeyringUnavailable = errors.New("system keyring unavailable")
)

// Keyring is the subset of keyring operations the store needs. The default
// implementation is the system keyring; tests substitute an in-memory one.
type Keyring interface {
	Get(service, user string) (string, error)
	Set(service, user, value string) error
	Delete(service, user string) error
}

// systemKeyring adapts the zalando/go-keyring package functions.
type systemKeyring struct{}

func (systemKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (systemKeyring) Set(service, user, value string) error {
	return keyring.Set(service, user, value)
}
func (systemKeyring) Delete(service, user string) error { return keyring.Delete(service, user) }

// Store manages the Zulip API key.
type Store struct {
	ring Keyring
}

// NewStore creates a store backed by the system keyring.
func NewStore() *Store {
	return &Store{ring: systemKeyring{}}
}

// NewStoreWithKeyring creates a store with a custom keyring backend.
// This is primarily used for testing.
func NewStoreWithKeyring(ring Keyring) *Store {
	return &Store{ring: ring}
}

// ZulipAPIKey returns the active Zulip API key. The environment variable
// takes priority over the keyring so CI runs never touch the keyring.
func (s *Store) ZulipAPIKey() (string, error) {
	if key := os.Getenv(EnvZulipAPIKey); key != "" {
		return key, nil
	}

	key, err := s.ring.Get(keyringService, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoCredentials
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	if key == "" {
		return "", ErrNoCredentials
	}
	return key, nil
}

// SetZulipAPIKey stores the API key in the keyring.
func (s *Store) SetZulipAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	if err := s.ring.Set(keyringService, keyringUser, key); err != nil {
		return fmt.Errorf("%w: storing key: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// DeleteZulipAPIKey removes the stored API key. Deleting a key that was
// never stored is not an error.
func (s *Store) DeleteZulipAPIKey() error {
	if err := s.ring.Delete(keyringService, keyringUser); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: removing key: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// HasZulipAPIKey reports whether an API key is available from either source.
func (s *Store) HasZulipAPIKey() bool {
	_, err := s.ZulipAPIKey()
	return err == nil
}

// Source names where the active key comes from, for the auth show command.
func (s *Store) Source() string {
	if os.Getenv(EnvZulipAPIKey) != "" {
		return fmt.Sprintf("environment (%s)", EnvZulipAPIKey)
	}
	return KeyringDescription()
}

// KeyringDescription returns a human-readable name for the system keyring.
func KeyringDescription() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}

// MaskCredential returns a masked version of the credential for display.
func MaskCredential(cred string) string {
	if len(cred) <= 8 {
		return strings.Repeat("*", len(cred))
	}
	return cred[:4] + strings.Repeat("*", len(cred)-8) + cred[len(cred)-4:]
}
