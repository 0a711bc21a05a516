// Package oauth obtains and stores Twitter app-only bearer tokens.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrTokenNotFound = errors.New("token not found")

// Provider is the storage key of Twitter tokens.
const Provider = "twitter"

type Config struct {
	ClientID     string
	ClientSecret string // #nosec G117 - JSON field for OAuth config, not an exposed secret
	TokenURL     string
}

// TwitterOAuthConfig builds the app-only config from the consumer API key
// and secret.
func TwitterOAuthConfig(apiKey, apiSecret string) Config {
	return Config{ // #nosec G101 -- OAuth URLs are public API endpoints, not hardcoded credentials
		ClientID:     apiKey,
		ClientSecret: apiSecret,
		TokenURL:     "https://api.twitter.com/oauth2/token",
	}
}

func (c Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if c.TokenURL == "" {
		missing = append(missing, "token URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid oauth config: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

type Token struct {
	AccessToken string `json:"access_token"` // #nosec G117 - JSON field for OAuth token, not an exposed secret
	TokenType   string `json:"token_type"`
}

type Flow struct {
	config     Config
	httpClient *http.Client
}

type FlowOption func(*Flow)

func WithHTTPClient(client *http.Client) FlowOption {
	return func(f *Flow) { f.httpClient = client }
}

func NewFlow(config Config, opts ...FlowOption) *Flow {
	f := &Flow{config: config, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchBearerToken runs the client credentials grant. Twitter expects the
// key and secret as basic auth on the token request.
func (f *Flow) FetchBearerToken(ctx context.Context) (*Token, error) {
	if err := f.config.Validate(); err != nil {
		return nil, err
	}

	cc := clientcredentials.Config{
		ClientID:     f.config.ClientID,
		ClientSecret: f.config.ClientSecret,
		TokenURL:     f.config.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, f.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bearer token: %w", err)
	}
	if !strings.EqualFold(tok.TokenType, "bearer") {
		return nil, fmt.Errorf("unexpected token type %q", tok.TokenType)
	}

	return &Token{AccessToken: tok.AccessToken, TokenType: "bearer"}, nil
}

type TokenStorage struct {
	dir string
}

func NewTokenStorage(dir string) *TokenStorage {
	return &TokenStorage{dir: dir}
}

func (s *TokenStorage) Save(provider string, token *Token) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	cleanProvider := filepath.Base(provider)
	return os.WriteFile(filepath.Join(s.dir, cleanProvider+"_token.json"), data, 0600)
}

func (s *TokenStorage) Load(provider string) (*Token, error) {
	cleanProvider := filepath.Base(provider)
	data, err := os.ReadFile(filepath.Join(s.dir, cleanProvider+"_token.json")) // #nosec G304 -- provider is sanitized
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, ErrTokenNotFound
	}

	return &token, nil
}

// Delete removes a stored token. A missing token is not an error.
func (s *TokenStorage) Delete(provider string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(provider)+"_token.json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
