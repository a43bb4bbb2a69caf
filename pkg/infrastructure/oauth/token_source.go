package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	shared "github.com/okkyok/Fibit2Obsidian/pkg"
	httputil "github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/http"
	"github.com/okkyok/Fibit2Obsidian/pkg/infrastructure/secrets"
)

// TokenPair is the persisted OAuth credential state. It is the only
// process-external mutable state the job owns, stored as a single JSON
// secret version.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

// TokenSource returns a valid token.
// It is safe for concurrent use by multiple goroutines.
type TokenSource interface {
	Token(context.Context) (*TokenPair, error)
	ForceRefresh(context.Context) (*TokenPair, error)
}

// Config carries the provider credentials for the token source.
type Config struct {
	SecretName   string
	ClientID     string
	ClientSecret string
	// AuthCode is the one-time authorization code for the first run.
	// The code is single-use: the exchange is attempted exactly once.
	AuthCode    string
	RedirectURI string
	TokenURL    string
	HTTPClient  *http.Client
}

// SecretsTokenSource reads the token pair from the secret store and
// refreshes it through the provider when necessary.
type SecretsTokenSource struct {
	store shared.SecretStore
	cfg   Config
	now   func() time.Time
	mu    sync.Mutex
}

func NewSecretsTokenSource(store shared.SecretStore, cfg Config) *SecretsTokenSource {
	if cfg.TokenURL == "" {
		cfg.TokenURL = shared.FitbitTokenURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &SecretsTokenSource{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Token returns a token, refreshing or exchanging if necessary.
// A cached access token that is not expiring within the next minute is
// returned unchanged.
func (s *SecretsTokenSource) Token(ctx context.Context) (*TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pair, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	// Proactive refresh: treat tokens expiring in the next minute as stale.
	if pair.AccessToken != "" && (pair.Expiry.IsZero() || s.now().Add(1*time.Minute).Before(pair.Expiry)) {
		return pair, nil
	}

	if pair.RefreshToken != "" {
		return s.refreshToken(ctx, pair.RefreshToken)
	}

	if s.cfg.AuthCode != "" {
		return s.exchangeAuthCode(ctx)
	}

	return nil, fmt.Errorf("no cached token, refresh token, or authorization code available")
}

// ForceRefresh forcibly refreshes the token regardless of expiry.
func (s *SecretsTokenSource) ForceRefresh(ctx context.Context) (*TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Fetch the refresh token from the store again: a concurrent trigger may
	// have rotated it since our last read.
	pair, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if pair.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token; re-run the authorization code setup")
	}

	return s.refreshToken(ctx, pair.RefreshToken)
}

func (s *SecretsTokenSource) load(ctx context.Context) (*TokenPair, error) {
	raw, err := s.store.GetSecret(ctx, s.cfg.SecretName)
	if err != nil {
		if errors.Is(err, secrets.ErrNotFound) {
			return &TokenPair{}, nil
		}
		return nil, fmt.Errorf("read token secret: %w", err)
	}

	var pair TokenPair
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		// Earlier deployments stored the bare refresh token string.
		return &TokenPair{RefreshToken: strings.TrimSpace(raw)}, nil
	}
	return &pair, nil
}

func (s *SecretsTokenSource) save(ctx context.Context, pair *TokenPair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("marshal token pair: %w", err)
	}
	if err := s.store.SetSecret(ctx, s.cfg.SecretName, string(data)); err != nil {
		return fmt.Errorf("persist token pair: %w", err)
	}
	return nil
}

// refreshToken performs the HTTP exchange for a new access token and
// persists the result. Fitbit wants the client credentials in a Basic
// auth header, not the form body.
func (s *SecretsTokenSource) refreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, "POST", s.cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	// Only replace the refresh token if the provider returned a new one.
	// Writing an empty response value would wipe the stored token.
	newRefreshToken := result.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = refreshToken
	}

	pair := &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: newRefreshToken,
		Expiry:       s.now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}
	if err := s.save(ctx, pair); err != nil {
		return nil, err
	}
	return pair, nil
}

// exchangeAuthCode trades the one-time authorization code for a token pair.
// Never retried: a failed exchange requires issuing a new code.
func (s *SecretsTokenSource) exchangeAuthCode(ctx context.Context) (*TokenPair, error) {
	conf := &oauth2.Config{
		ClientID:     s.cfg.ClientID,
		ClientSecret: s.cfg.ClientSecret,
		RedirectURL:  s.cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			TokenURL:  s.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.cfg.HTTPClient)
	tok, err := conf.Exchange(ctx, s.cfg.AuthCode)
	if err != nil {
		return nil, fmt.Errorf("authorization code exchange failed: %w", err)
	}
	if tok.RefreshToken == "" {
		return nil, fmt.Errorf("exchange response contained no refresh token")
	}

	pair := &TokenPair{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
	if err := s.save(ctx, pair); err != nil {
		return nil, err
	}
	return pair, nil
}
