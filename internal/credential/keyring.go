// Package credential stores secrets in the operating system keyring.
package credential

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "prodtask"

// AIKey is the keyring entry holding the text-generation API key.
const AIKey = "ai-api-key"

// AIKeyEnv overrides the keyring entry when set.
const AIKeyEnv = "PRODTASK_AI_KEY"

// ErrNotFound is returned when no credential exists under the key.
var ErrNotFound = errors.New("credential not found")

var openKeyring = func() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/prodtask/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("prodtask-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// LoadAIKey returns the API key from the environment, falling back to the
// keyring. A missing key is not an error.
func LoadAIKey() (string, error) {
	if v := strings.TrimSpace(os.Getenv(AIKeyEnv)); v != "" {
		return v, nil
	}

	v, err := Get(AIKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}
