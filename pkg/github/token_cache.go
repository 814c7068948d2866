package github

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

const (
	// KeyringService is the keychain service name for flightcheck.
	KeyringService = "flightcheck-github"
	// KeyringAccount is the keychain account name for OAuth tokens.
	KeyringAccount = "oauth-token"

	tokenCacheDir  = ".config/flightcheck"
	tokenCacheFile = "github-token.json" //nolint:gosec // file name, not a credential
)

// TokenCache manages OAuth token storage.
type TokenCache interface {
	Get() (*oauth2.Token, error)
	Set(token *oauth2.Token) error
	Clear() error
}

type cachedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

func encodeToken(t *oauth2.Token) ([]byte, error) {
	return json.Marshal(cachedToken{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	})
}

func decodeToken(data []byte) (*oauth2.Token, error) {
	var c cachedToken
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}, nil
}

// NewTokenCache creates a token cache, preferring the OS keychain and
// falling back to a 0600 file on headless systems.
func NewTokenCache() TokenCache {
	probe := KeyringService + "-probe"
	if err := keyring.Set(probe, "probe", "probe"); err == nil {
		_ = keyring.Delete(probe, "probe")
		return &KeychainTokenCache{service: KeyringService, account: KeyringAccount}
	}
	return NewFileTokenCache(defaultTokenCachePath())
}

// KeychainTokenCache stores the token in the macOS keychain, Linux secret
// service or Windows credential manager.
type KeychainTokenCache struct {
	service string
	account string
}

// Get retrieves the cached token, or nil when none is stored.
func (k *KeychainTokenCache) Get() (*oauth2.Token, error) {
	data, err := keyring.Get(k.service, k.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fcerrors.NewGitHubErrorWithCause("TokenCache.Get", "failed to read from keychain", err)
	}

	token, err := decodeToken([]byte(data))
	if err != nil {
		return nil, fcerrors.NewGitHubErrorWithCause("TokenCache.Get", "failed to parse cached token", err)
	}
	return token, nil
}

// Set stores the token in the keychain.
func (k *KeychainTokenCache) Set(token *oauth2.Token) error {
	data, err := encodeToken(token)
	if err != nil {
		return fcerrors.NewGitHubErrorWithCause("TokenCache.Set", "failed to serialize token", err)
	}
	if err := keyring.Set(k.service, k.account, string(data)); err != nil {
		return fcerrors.NewGitHubErrorWithCause("TokenCache.Set", "failed to save to keychain", err)
	}
	return nil
}

// Clear removes the token from the keychain.
func (k *KeychainTokenCache) Clear() error {
	if err := keyring.Delete(k.service, k.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fcerrors.NewGitHubErrorWithCause("TokenCache.Clear", "failed to clear keychain", err)
	}
	return nil
}

// FileTokenCache stores the token in a file readable only by the owner.
type FileTokenCache struct {
	path string
}

// NewFileTokenCache returns a FileTokenCache writing to path.
func NewFileTokenCache(path string) *FileTokenCache {
	return &FileTokenCache{path: path}
}

// Get retrieves the cached token, or nil when the file does not exist.
func (f *FileTokenCache) Get() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fcerrors.NewGitHubErrorWithCause("TokenCache.Get", "failed to read token file", err)
	}

	token, err := decodeToken(data)
	if err != nil {
		return nil, fcerrors.NewGitHubErrorWithCause("TokenCache.Get", "failed to parse cached token", err)
	}
	return token, nil
}

// Set writes the token with 0600 permissions.
func (f *FileTokenCache) Set(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fcerrors.NewGitHubErrorWithCause("TokenCache.Set", "failed to create config directory", err)
	}

	data, err := encodeToken(token)
	if err != nil {
		return fcerrors.NewGitHubErrorWithCause("TokenCache.Set", "failed to serialize token", err)
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fcerrors.NewGitHubErrorWithCause("TokenCache.Set", "failed to write token file", err)
	}
	return nil
}

// Clear removes the token file.
func (f *FileTokenCache) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fcerrors.NewGitHubErrorWithCause("TokenCache.Clear", "failed to remove token file", err)
	}
	return nil
}

func defaultTokenCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, tokenCacheDir, tokenCacheFile)
}
