package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "ninlil"
	keyringPrefix  = "tumblr_"
	// keyringIndex lists stored blogs, since keyrings cannot enumerate entries
	keyringIndex = "_blogs"
)

// KeyringStore implements CredentialStore using the system keychain
type KeyringStore struct{}

// NewKeyringStore returns a keyring store if the system keyring answers
func NewKeyringStore() (*KeyringStore, error) {
	const probe = "test_availability"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, probe)
	return &KeyringStore{}, nil
}

// Store saves credentials to the system keychain
func (k *KeyringStore) Store(creds *Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := keyring.Set(keyringService, keyringPrefix+creds.Blog, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return k.updateIndex(func(blogs map[string]bool) { blogs[creds.Blog] = true })
}

// Retrieve gets credentials from the system keychain
func (k *KeyringStore) Retrieve(blog string) (*Credentials, error) {
	if blog == "" {
		return nil, ErrInvalidCredentials
	}

	data, err := keyring.Get(keyringService, keyringPrefix+blog)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrCredentialsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return &creds, nil
}

// List returns the credentials of every blog in the index
func (k *KeyringStore) List() ([]*Credentials, error) {
	blogs, err := k.readIndex()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(blogs))
	for blog := range blogs {
		names = append(names, blog)
	}
	sort.Strings(names)

	result := make([]*Credentials, 0, len(names))
	for _, blog := range names {
		creds, err := k.Retrieve(blog)
		if err != nil {
			continue
		}
		result = append(result, creds)
	}
	return result, nil
}

// Delete removes credentials from the system keychain
func (k *KeyringStore) Delete(blog string) error {
	if blog == "" {
		return ErrInvalidCredentials
	}

	err := keyring.Delete(keyringService, keyringPrefix+blog)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrCredentialsNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return k.updateIndex(func(blogs map[string]bool) { delete(blogs, blog) })
}

// Exists checks if credentials exist in the keychain
func (k *KeyringStore) Exists(blog string) bool {
	if blog == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+blog)
	return err == nil
}

func (k *KeyringStore) readIndex() (map[string]bool, error) {
	blogs := make(map[string]bool)

	data, err := keyring.Get(keyringService, keyringIndex)
	if errors.Is(err, keyring.ErrNotFound) {
		return blogs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("failed to parse keyring index: %w", err)
	}
	for _, name := range names {
		blogs[name] = true
	}
	return blogs, nil
}

func (k *KeyringStore) updateIndex(mutate func(map[string]bool)) error {
	blogs, err := k.readIndex()
	if err != nil {
		return err
	}
	mutate(blogs)

	names := make([]string, 0, len(blogs))
	for blog := range blogs {
		names = append(names, blog)
	}
	sort.Strings(names)

	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return keyring.Set(keyringService, keyringIndex, string(data))
}
