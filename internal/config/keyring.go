package config

import (
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
)

// SecretStore reads and writes the mailbox secret keyed by mailbox address.
type SecretStore interface {
	Get(account string) (string, error)
	Set(account, secret string) error
	Delete(account string) error
}

// KeyringStore keeps secrets in the operating system keyring.
type KeyringStore struct {
	open func() (keyring.Keyring, error)
}

// NewKeyringStore returns a SecretStore backed by the system keyring.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{open: openKeyring}
}

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: AppName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(UserCacheDir(), AppName, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt(AppName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves the secret stored for account.
func (s *KeyringStore) Get(account string) (string, error) {
	ring, err := s.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(account)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", account, err)
	}
	return string(item.Data), nil
}

// Set stores the secret for account.
func (s *KeyringStore) Set(account, secret string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         account,
		Data:        []byte(secret),
		Label:       AppName + " mailbox secret",
		Description: "application password for " + account,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", account, err)
	}
	return nil
}

// Delete removes the secret stored for account.
func (s *KeyringStore) Delete(account string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	if err := ring.Remove(account); err != nil {
		return fmt.Errorf("deleting credential %q: %w", account, err)
	}
	return nil
}
