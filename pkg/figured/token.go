// Token management for Figured OAuth2 authentication.
package figured

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

const (
	defaultTokenPath  = ".config/fig-convert/token.json"
	tokenExpiryBuffer = 5 * time.Minute // Refresh 5 minutes before expiry
)

// TokenManager handles OAuth2 token persistence and refresh.
type TokenManager struct {
	tokenPath string
	config    *oauth2.Config
}

// NewTokenManager creates a new token manager.
func NewTokenManager(config *oauth2.Config, tokenPath string) *TokenManager {
	if tokenPath == "" {
		home, _ := os.UserHomeDir()
		tokenPath = filepath.Join(home, defaultTokenPath)
	}
	return &TokenManager{
		tokenPath: tokenPath,
		config:    config,
	}
}

// LoadToken loads the token from file.
func (m *TokenManager) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(m.tokenPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	return &token, nil
}

// SaveToken saves the token to file.
func (m *TokenManager) SaveToken(token *oauth2.Token) error {
	dir := filepath.Dir(m.tokenPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(m.tokenPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// IsExpired checks if the token is expired or will expire soon.
func (m *TokenManager) IsExpired(token *oauth2.Token) bool {
	if token.Expiry.IsZero() {
		return false
	}
	return time.Now().Add(tokenExpiryBuffer).After(token.Expiry)
}

// AuthURL returns the authorization URL the user has to visit to grant
// access to the farm.
func (m *TokenManager) AuthURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and persists it.
func (m *TokenManager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if err := m.SaveToken(token); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	return token, nil
}

// GetValidToken returns a valid access token, refreshing if necessary.
func (m *TokenManager) GetValidToken(ctx context.Context) (*oauth2.Token, error) {
	token, err := m.LoadToken()
	if err != nil {
		return nil, err
	}

	if !m.IsExpired(token) {
		return token, nil
	}

	// Token expired, refresh through the refresh token
	newToken, err := m.config.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if err := m.SaveToken(newToken); err != nil {
		return nil, fmt.Errorf("failed to save refreshed token: %w", err)
	}

	return newToken, nil
}
