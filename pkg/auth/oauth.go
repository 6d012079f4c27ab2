package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// OAuth2Config locates the client credentials and the cached token on
// disk and knows which scopes to request.
type OAuth2Config struct {
	CredentialsPath string
	TokenPath       string
	Scopes          []string
}

// NewOAuth2Config bundles the credential and token file locations with
// the scopes to request.
func NewOAuth2Config(credentialsPath, tokenPath string, scopes ...string) *OAuth2Config {
	return &OAuth2Config{CredentialsPath: credentialsPath, TokenPath: tokenPath, Scopes: scopes}
}

// DefaultScopes returns the scopes the mail commands need.
func DefaultScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/gmail.readonly",
		"https://www.googleapis.com/auth/gmail.send",
		"https://www.googleapis.com/auth/gmail.modify",
		"https://www.googleapis.com/auth/gmail.compose",
	}
}

// LoadCredentials parses the Google client credentials file.
func (c *OAuth2Config) LoadCredentials() (*oauth2.Config, error) {
	raw, err := os.ReadFile(c.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("could not read credentials file %s: %w", c.CredentialsPath, err)
	}
	cfg, err := google.ConfigFromJSON(raw, c.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("could not parse credentials file %s: %w", c.CredentialsPath, err)
	}
	return cfg, nil
}

// LoadToken reads the cached token.
func (c *OAuth2Config) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("could not read token file: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("could not parse token file %s: %w", c.TokenPath, err)
	}
	return &token, nil
}

// SaveToken persists the token, creating the directory if needed. The
// write goes through a temp file and rename so a crash or a concurrent
// save never leaves a half-written token, and the file ends up 0600
// because it holds a live refresh token.
func (c *OAuth2Config) SaveToken(token *oauth2.Token) error {
	dir := filepath.Dir(c.TokenPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	encoded, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("could not encode OAuth token: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("could not write token file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write token file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.TokenPath); err != nil {
		return fmt.Errorf("could not write token file: %w", err)
	}
	return nil
}

// GetToken returns a usable access token, refreshing and re-persisting it
// when the cached one is expired or inside the refresh skew window. Token
// acquisition is out of scope: when no cached token exists, or the
// refresh token has been revoked, the caller gets an error telling the
// operator to provision one, never an interactive prompt.
func (c *OAuth2Config) GetToken(ctx context.Context) (*oauth2.Token, error) {
	cfg, err := c.LoadCredentials()
	if err != nil {
		return nil, err
	}

	token, err := c.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("no cached token at %s; provision one with your OAuth tooling: %w", c.TokenPath, err)
	}

	if token.Valid() {
		return token, nil
	}

	newToken, err := cfg.TokenSource(ctx, token).Token()
	if err != nil {
		if strings.Contains(err.Error(), "invalid_grant") ||
			strings.Contains(err.Error(), "Token has been expired or revoked") {
			return nil, fmt.Errorf("cached token at %s has been revoked; provision a fresh one: %w", c.TokenPath, err)
		}
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	// Rotated refresh tokens must survive the process.
	if err := c.SaveToken(newToken); err != nil {
		return nil, err
	}

	return newToken, nil
}

// TokenSource returns a source that keeps the access token fresh for the
// lifetime of the process, persisting whatever it mints.
func (c *OAuth2Config) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := c.LoadCredentials()
	if err != nil {
		return nil, err
	}
	token, err := c.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	return &savingTokenSource{
		cfg:      c,
		delegate: oauth2.ReuseTokenSource(token, cfg.TokenSource(ctx, token)),
		last:     token.AccessToken,
	}, nil
}

// savingTokenSource persists tokens minted by the delegate so the next
// process run starts from the freshest pair. Token is called from every
// outbound request, concurrently during batch fetches.
type savingTokenSource struct {
	cfg      *OAuth2Config
	delegate oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.delegate.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		if err := s.cfg.SaveToken(token); err != nil {
			return nil, fmt.Errorf("could not persist refreshed token: %w", err)
		}
		s.last = token.AccessToken
	}
	return token, nil
}

// NewGmailService creates a Gmail service backed by the cached OAuth2
// credentials.
func NewGmailService(ctx context.Context, credentialsPath, tokenPath string, scopes ...string) (*gmail.Service, error) {
	authConfig := NewOAuth2Config(credentialsPath, tokenPath, scopes...)

	source, err := authConfig.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, source)))
	if err != nil {
		return nil, fmt.Errorf("could not create Gmail service: %w", err)
	}

	return svc, nil
}
