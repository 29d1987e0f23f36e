package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "carepoint-cli"

// KeyringKV stores values in the OS keychain/credential manager.
// Keys are namespaced so one machine can hold sessions for several APIs.
type KeyringKV struct {
	namespace string
}

// NewKeyringKV creates a keyring store scoped to namespace (the API host)
func NewKeyringKV(namespace string) *KeyringKV {
	return &KeyringKV{namespace: namespace}
}

func (k *KeyringKV) key(name string) string {
	return fmt.Sprintf("%s-%s", name, k.namespace)
}

// Get implements KV
func (k *KeyringKV) Get(_ context.Context, key string) (string, bool, error) {
	v, err := keyring.Get(keyringService, k.key(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load %s from keyring: %w", key, err)
	}
	return v, true, nil
}

// Set implements KV
func (k *KeyringKV) Set(_ context.Context, key, value string) error {
	if err := keyring.Set(keyringService, k.key(key), value); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

// Delete implements KV
func (k *KeyringKV) Delete(_ context.Context, key string) error {
	if err := keyring.Delete(keyringService, k.key(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}
