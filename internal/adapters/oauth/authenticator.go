package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ogurasousui/employee-sync-adapter/internal/platform/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheKey = "workforce_access_token"
	DefaultTTL      = 3600 * time.Second
)

const (
	// oauth2MissingTokenText は x/oauth2 が access_token のない応答に対して返すエラー文言の一部です。
	oauth2MissingTokenText = "missing access_token"
	reasonMissingToken     = "token response is missing access_token"
)

// AuthenticationError はアクセストークンを取得できなかったことを表します。
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	return e.Reason
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Cache はアクセストークンの保存先です。
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Config はクライアントクレデンシャルフローの設定です。
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	CacheKey     string
	TTL          time.Duration
}

// Option は Authenticator の任意設定です。
type Option func(*Authenticator)

func WithClock(clock Clock) Option {
	return func(a *Authenticator) {
		if clock != nil {
			a.clock = clock
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(a *Authenticator) {
		if client != nil {
			a.httpClient = client
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(a *Authenticator) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Authenticator) {
		a.metrics = m
	}
}

// Authenticator はクライアントクレデンシャルで取得したアクセストークンをキャッシュします。
// キャッシュミス時のトークン取得はキー単位で一つにまとめられます。
type Authenticator struct {
	credentials clientcredentials.Config
	cache       Cache
	key         string
	ttl         time.Duration
	clock       Clock
	httpClient  *http.Client
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	group       singleflight.Group
}

// NewAuthenticator は Authenticator を生成します。
func NewAuthenticator(cfg Config, cache Cache, opts ...Option) *Authenticator {
	key := cfg.CacheKey
	if key == "" {
		key = DefaultCacheKey
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	a := &Authenticator{
		credentials: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       strings.Fields(cfg.Scope),
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		cache:      cache,
		key:        key,
		ttl:        ttl,
		clock:      realClock{},
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AccessToken はキャッシュ済みのトークンを返し、存在しなければトークンエンドポイントから取得します。
func (a *Authenticator) AccessToken(ctx context.Context) (string, error) {
	if token, ok := a.cached(ctx); ok {
		return token, nil
	}

	v, err, _ := a.group.Do(a.key, func() (any, error) {
		if token, ok := a.cached(ctx); ok {
			return token, nil
		}
		return a.fetch(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ClearToken はキャッシュ済みのトークンを破棄し、次回の呼び出しで再認証させます。
func (a *Authenticator) ClearToken(ctx context.Context) error {
	if err := a.cache.Delete(ctx, a.key); err != nil {
		return fmt.Errorf("oauth: clear token: %w", err)
	}
	return nil
}

func (a *Authenticator) cached(ctx context.Context) (string, bool) {
	token, ok, err := a.cache.Get(ctx, a.key)
	if err != nil {
		a.logger.Warn().Err(err).Msg("token cache read failed")
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (a *Authenticator) fetch(ctx context.Context) (string, error) {
	a.logger.Info().
		Str("token_url", a.credentials.TokenURL).
		Str("client_id", a.credentials.ClientID).
		Strs("scopes", a.credentials.Scopes).
		Msg("requesting new access token")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	token, err := a.credentials.Token(ctx)
	if err != nil {
		a.metrics.TokenFetched(false)
		authErr := toAuthenticationError(err)
		a.logger.Error().Err(err).Str("token_url", a.credentials.TokenURL).Msg("failed to obtain access token")
		return "", authErr
	}
	if token.AccessToken == "" {
		a.metrics.TokenFetched(false)
		a.logger.Error().Str("token_url", a.credentials.TokenURL).Msg("token response has empty access_token")
		return "", &AuthenticationError{Reason: reasonMissingToken}
	}
	a.metrics.TokenFetched(true)

	ttl := a.ttl
	if !token.Expiry.IsZero() {
		if remaining := token.Expiry.Sub(a.clock.Now()); remaining < ttl {
			ttl = remaining
		}
	}

	if err := a.cache.Set(ctx, a.key, token.AccessToken, ttl); err != nil {
		a.logger.Warn().Err(err).Msg("token cache write failed")
	}

	a.logger.Info().Dur("ttl", ttl).Msg("obtained access token")
	return token.AccessToken, nil
}

func toAuthenticationError(err error) *AuthenticationError {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		return &AuthenticationError{
			Reason: fmt.Sprintf("token endpoint returned status %d", retrieveErr.Response.StatusCode),
			Err:    err,
		}
	}
	if strings.Contains(err.Error(), oauth2MissingTokenText) {
		return &AuthenticationError{Reason: reasonMissingToken, Err: err}
	}
	return &AuthenticationError{Reason: "token request failed", Err: err}
}
