package auth

import (
	"os"
	"time"
)

const (
	TokenEnv       = "NINLIL_OAUTH_TOKEN"
	TokenSecretEnv = "NINLIL_OAUTH_TOKEN_SECRET"
	BlogEnv        = "NINLIL_BLOG"
)

// EnvironmentStore reads a single token pair from the environment. It answers
// for any blog unless NINLIL_BLOG pins it to one. Writes are not supported.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(blog string) (*Credentials, error) {
	token := os.Getenv(TokenEnv)
	secret := os.Getenv(TokenSecretEnv)
	if token == "" || secret == "" {
		return nil, ErrCredentialsNotFound
	}

	if pinned := os.Getenv(BlogEnv); pinned != "" {
		if blog != "" && blog != pinned {
			return nil, ErrCredentialsNotFound
		}
		blog = pinned
	}
	if blog == "" {
		blog = "default"
	}

	return &Credentials{
		Blog:         blog,
		Token:        token,
		TokenSecret:  secret,
		LastModified: time.Time{},
	}, nil
}

// List returns the environment pair if set
func (e *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := e.Retrieve("")
	if err != nil {
		return []*Credentials{}, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(blog string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(blog string) bool {
	_, err := e.Retrieve(blog)
	return err == nil
}
