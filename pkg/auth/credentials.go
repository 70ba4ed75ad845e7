package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"ninlil/pkg/oauth"
	"ninlil/pkg/tumblr"
)

// Credentials is the final OAuth token pair a blog owner granted, keyed by blog
type Credentials struct {
	Blog         string    `json:"blog"`
	Token        string    `json:"token"`
	TokenSecret  string    `json:"token_secret"`
	LastModified time.Time `json:"last_modified"`
}

// OAuth returns the token pair for building a signed client
func (c *Credentials) OAuth() oauth.Credentials {
	return oauth.Credentials{Token: c.Token, TokenSecret: c.TokenSecret}
}

// Validate checks that the credentials can be stored
func (c *Credentials) Validate() error {
	if c == nil || c.Blog == "" {
		return fmt.Errorf("%w: blog is required", ErrInvalidCredentials)
	}
	if c.Token == "" || c.TokenSecret == "" {
		return fmt.Errorf("%w: token and token secret are required", ErrInvalidCredentials)
	}
	return nil
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(creds *Credentials) error
	Retrieve(blog string) (*Credentials, error)
	List() ([]*Credentials, error)
	Delete(blog string) error
	Exists(blog string) bool
}

// Manager reads from and writes to an ordered list of stores. Writes go to
// the first store that accepts them; reads return the first hit.
type Manager struct {
	stores []CredentialStore
	now    func() time.Time
}

// NewManager builds the default chain: system keyring when available, an
// encrypted file under dir, then the environment
func NewManager(dir string) (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
	}

	passphrase, err := LoadOrCreatePassphrase(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"), passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return NewManagerWithStores(stores...), nil
}

// NewManagerWithStores creates a manager over explicit stores
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores, now: time.Now}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(creds *Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	stored := *creds
	stored.Blog = tumblr.NormalizeBlog(creds.Blog)
	stored.LastModified = m.now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(&stored)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials for blog from the first store that has them
func (m *Manager) Retrieve(blog string) (*Credentials, error) {
	key := tumblr.NormalizeBlog(blog)
	for _, store := range m.stores {
		if creds, err := store.Retrieve(key); err == nil && creds != nil {
			return creds, nil
		}
	}
	return nil, fmt.Errorf("%w for blog %s", ErrCredentialsNotFound, key)
}

// List returns every blog with stored credentials, newest copy wins, sorted by blog
func (m *Manager) List() ([]*Credentials, error) {
	byBlog := make(map[string]*Credentials)

	for _, store := range m.stores {
		all, err := store.List()
		if err != nil {
			continue
		}
		for _, creds := range all {
			if existing, ok := byBlog[creds.Blog]; !ok || creds.LastModified.After(existing.LastModified) {
				byBlog[creds.Blog] = creds
			}
		}
	}

	result := make([]*Credentials, 0, len(byBlog))
	for _, creds := range byBlog {
		result = append(result, creds)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Blog < result[j].Blog })
	return result, nil
}

// Delete removes credentials for blog from every store holding them
func (m *Manager) Delete(blog string) error {
	key := tumblr.NormalizeBlog(blog)
	deleted := false
	var lastErr error

	for _, store := range m.stores {
		err := store.Delete(key)
		switch {
		case err == nil:
			deleted = true
		case !errors.Is(err, ErrCredentialsNotFound) && !errors.Is(err, ErrStoreUnavailable):
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	return fmt.Errorf("%w for blog %s", ErrCredentialsNotFound, key)
}

// ConfigDir returns (and creates) the per-user ninlil configuration directory
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "ninlil")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "ninlil")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "ninlil")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "ninlil")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// Sanitize returns a copy with the token pair masked for display
func Sanitize(creds *Credentials) *Credentials {
	if creds == nil {
		return nil
	}
	masked := *creds
	masked.Token = maskString(creds.Token)
	masked.TokenSecret = maskString(creds.TokenSecret)
	return &masked
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
