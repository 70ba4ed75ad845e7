package auth

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func sampleCredentials(blog string) *Credentials {
	return &Credentials{
		Blog:        blog,
		Token:       "token_for_" + blog,
		TokenSecret: "secret_for_" + blog,
	}
}

func TestManagerRoundTrip(t *testing.T) {
	manager, store := NewMockManager()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	manager.now = func() time.Time { return fixed }

	require.NoError(t, manager.Store(sampleCredentials("https://Staff.tumblr.com/")))

	creds, err := manager.Retrieve("staff")
	require.NoError(t, err)
	assert.Equal(t, "staff.tumblr.com", creds.Blog)
	assert.Equal(t, "token_for_https://Staff.tumblr.com/", creds.Token)
	assert.Equal(t, fixed, creds.LastModified)
	assert.Equal(t, creds.Token, creds.OAuth().Token)

	require.NoError(t, manager.Delete("staff.tumblr.com"))
	_, err = manager.Retrieve("staff")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.Zero(t, store.Count())
}

func TestManagerRejectsIncompleteCredentials(t *testing.T) {
	manager, _ := NewMockManager()

	assert.ErrorIs(t, manager.Store(&Credentials{Blog: "staff"}), ErrInvalidCredentials)
	assert.ErrorIs(t, manager.Store(&Credentials{Token: "t", TokenSecret: "s"}), ErrInvalidCredentials)
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	broken := NewMockStore()
	broken.StoreError = errors.New("keyring locked")
	working := NewMockStore()
	manager := NewManagerWithStores(broken, working)

	require.NoError(t, manager.Store(sampleCredentials("staff")))
	assert.Zero(t, broken.Count())
	assert.Equal(t, 1, working.Count())

	_, err := manager.Retrieve("staff")
	assert.NoError(t, err)
}

func TestManagerListPrefersNewest(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()

	stale := sampleCredentials("staff.tumblr.com")
	stale.Token = "stale"
	stale.LastModified = time.Unix(100, 0)
	fresh := sampleCredentials("staff.tumblr.com")
	fresh.Token = "fresh"
	fresh.LastModified = time.Unix(200, 0)

	require.NoError(t, older.Store(stale))
	require.NoError(t, newer.Store(fresh))
	require.NoError(t, newer.Store(sampleCredentials("another.tumblr.com")))

	all, err := NewManagerWithStores(older, newer).List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "another.tumblr.com", all[0].Blog)
	assert.Equal(t, "fresh", all[1].Token)
}

func TestManagerDeleteMissing(t *testing.T) {
	manager := NewManagerWithStores(NewMockStore(), NewEnvironmentStore())
	assert.ErrorIs(t, manager.Delete("nobody"), ErrCredentialsNotFound)
}

func TestSanitize(t *testing.T) {
	creds := &Credentials{Blog: "staff", Token: "abcdefghijklmnop", TokenSecret: "short"}
	masked := Sanitize(creds)

	assert.Equal(t, "abcd...mnop", masked.Token)
	assert.Equal(t, "********", masked.TokenSecret)
	assert.Equal(t, "staff", masked.Blog)
	assert.Equal(t, "abcdefghijklmnop", creds.Token)
	assert.Nil(t, Sanitize(nil))
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.enc")
	store, err := NewEncryptedFileStore(path, "correct horse battery staple")
	require.NoError(t, err)

	assert.False(t, store.Exists("staff.tumblr.com"))
	all, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, store.Store(sampleCredentials("staff.tumblr.com")))
	require.NoError(t, store.Store(sampleCredentials("another.tumblr.com")))

	creds, err := store.Retrieve("staff.tumblr.com")
	require.NoError(t, err)
	assert.Equal(t, "secret_for_staff.tumblr.com", creds.TokenSecret)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte("secret_for_staff")), "file holds plaintext secret")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, store.Delete("staff.tumblr.com"))
	require.NoError(t, store.Delete("another.tumblr.com"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty store should remove its file")
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path, "right")
	require.NoError(t, err)
	require.NoError(t, store.Store(sampleCredentials("staff.tumblr.com")))

	other, err := NewEncryptedFileStore(path, "wrong")
	require.NoError(t, err)
	_, err = other.Retrieve("staff.tumblr.com")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)
}

func TestLoadOrCreatePassphrase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PassphraseEnv, "")

	first, err := LoadOrCreatePassphrase(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := LoadOrCreatePassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	t.Setenv(PassphraseEnv, "from-env")
	fromEnv, err := LoadOrCreatePassphrase(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-env", fromEnv)
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(TokenEnv, "env_token")
	t.Setenv(TokenSecretEnv, "env_secret")
	t.Setenv(BlogEnv, "")

	store := NewEnvironmentStore()

	creds, err := store.Retrieve("staff.tumblr.com")
	require.NoError(t, err)
	assert.Equal(t, "staff.tumblr.com", creds.Blog)
	assert.Equal(t, "env_token", creds.Token)
	assert.ErrorIs(t, store.Store(creds), ErrStoreUnavailable)

	t.Setenv(BlogEnv, "other.tumblr.com")
	_, err = store.Retrieve("staff.tumblr.com")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.True(t, store.Exists("other.tumblr.com"))
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(sampleCredentials("staff.tumblr.com")))
	require.NoError(t, store.Store(sampleCredentials("another.tumblr.com")))
	assert.True(t, store.Exists("staff.tumblr.com"))

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "another.tumblr.com", all[0].Blog)

	require.NoError(t, store.Delete("another.tumblr.com"))
	assert.ErrorIs(t, store.Delete("another.tumblr.com"), ErrCredentialsNotFound)

	all, err = store.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
