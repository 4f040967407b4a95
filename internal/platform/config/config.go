package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultRemoteScope     = "employees:read employees:write"
	defaultRemoteTimeout   = 15 * time.Second
	defaultTokenCacheTTL   = 3600 * time.Second
	defaultTokenCacheKey   = "workforce_access_token"
	defaultShutdownTimeout = 10 * time.Second
	defaultRedisPrefix     = "employee-sync"
	defaultApplicationName = "employee-sync-adapter"
)

// TokenCacheDriver はアクセストークンのキャッシュ先を表します。
type TokenCacheDriver string

const (
	TokenCacheMemory TokenCacheDriver = "memory"
	TokenCacheRedis  TokenCacheDriver = "redis"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Remote       RemoteConfig       `yaml:"remote"`
	TokenCache   TokenCacheConfig   `yaml:"token_cache"`
	Log          LogConfig          `yaml:"log"`
	ProviderAuth ProviderAuthConfig `yaml:"provider_auth"`
}

// ServerConfig は HTTP サーバーとヘルスチェック用 gRPC リスナーに関する設定です。
type ServerConfig struct {
	HTTPAddr           string        `yaml:"http_addr"`
	HealthAddr         string        `yaml:"health_addr"`
	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
	ApplicationName    string        `yaml:"application_name"`
	// StatementTimeout が 0 の場合はサーバー既定値を使います。
	StatementTimeout    time.Duration `yaml:"-"`
	StatementTimeoutRaw string        `yaml:"statement_timeout"`
}

// RemoteConfig は連携先の勤怠管理 API と OAuth2 トークンエンドポイントの設定です。
type RemoteConfig struct {
	BaseURL      string        `yaml:"base_url"`
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Scope        string        `yaml:"scope"`
	Timeout      time.Duration `yaml:"-"`
	TimeoutRaw   string        `yaml:"timeout"`
}

// TokenCacheConfig はアクセストークンキャッシュの設定です。
type TokenCacheConfig struct {
	Driver TokenCacheDriver `yaml:"driver"`
	Key    string           `yaml:"key"`
	TTL    time.Duration    `yaml:"-"`
	TTLRaw string           `yaml:"ttl"`
	Redis  RedisConfig      `yaml:"redis"`
}

// RedisConfig は Redis 接続の設定です。
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// LogConfig はログ出力の設定です。
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ProviderAuthConfig はプロバイダーからの受信リクエスト認証の設定です。
type ProviderAuthConfig struct {
	Enabled     bool     `yaml:"enabled"`
	TokenHashes []string `yaml:"token_hashes"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	cfg.applyEnvOverrides(os.LookupEnv)

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides は秘匿情報を環境変数で上書きします。
func (c *Config) applyEnvOverrides(lookup func(string) (string, bool)) {
	if v, ok := lookup("DATABASE_PASSWORD"); ok && v != "" {
		c.Database.Password = v
	}
	if v, ok := lookup("REMOTE_CLIENT_ID"); ok && v != "" {
		c.Remote.ClientID = v
	}
	if v, ok := lookup("REMOTE_CLIENT_SECRET"); ok && v != "" {
		c.Remote.ClientSecret = v
	}
	if v, ok := lookup("REDIS_PASSWORD"); ok && v != "" {
		c.TokenCache.Redis.Password = v
	}
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Remote.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.TokenCache.validateAndNormalize(); err != nil {
		return err
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.ProviderAuth.Enabled {
		hashes := make([]string, 0, len(c.ProviderAuth.TokenHashes))
		for _, h := range c.ProviderAuth.TokenHashes {
			if trimmed := strings.TrimSpace(h); trimmed != "" {
				hashes = append(hashes, trimmed)
			}
		}
		c.ProviderAuth.TokenHashes = hashes
	}

	return nil
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.HTTPAddr == "" {
		return fmt.Errorf("config: server.http_addr must be set")
	}

	timeout, err := parseDurationAllowEmpty(s.ShutdownTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.shutdown_timeout: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	s.ShutdownTimeout = timeout

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	statementTimeout, err := parseDurationAllowEmpty(d.StatementTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: database.statement_timeout: %w", err)
	}
	d.StatementTimeout = statementTimeout

	if strings.TrimSpace(d.ApplicationName) == "" {
		d.ApplicationName = defaultApplicationName
	}

	return nil
}

func (r *RemoteConfig) validateAndNormalize() error {
	r.BaseURL = strings.TrimRight(strings.TrimSpace(r.BaseURL), "/")
	if r.BaseURL == "" {
		return fmt.Errorf("config: remote.base_url must be set")
	}
	if _, err := url.ParseRequestURI(r.BaseURL); err != nil {
		return fmt.Errorf("config: remote.base_url: %w", err)
	}
	if strings.TrimSpace(r.TokenURL) == "" {
		return fmt.Errorf("config: remote.token_url must be set")
	}
	if r.ClientID == "" {
		return fmt.Errorf("config: remote.client_id must be set")
	}
	if r.ClientSecret == "" {
		return fmt.Errorf("config: remote.client_secret must be set")
	}
	if strings.TrimSpace(r.Scope) == "" {
		r.Scope = defaultRemoteScope
	}

	timeout, err := parseDurationAllowEmpty(r.TimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: remote.timeout: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	r.Timeout = timeout

	return nil
}

func (t *TokenCacheConfig) validateAndNormalize() error {
	switch TokenCacheDriver(strings.ToLower(string(t.Driver))) {
	case "", TokenCacheMemory:
		t.Driver = TokenCacheMemory
	case TokenCacheRedis:
		t.Driver = TokenCacheRedis
		if t.Redis.Addr == "" {
			return fmt.Errorf("config: token_cache.redis.addr must be set when driver is redis")
		}
		if t.Redis.Prefix == "" {
			t.Redis.Prefix = defaultRedisPrefix
		}
	default:
		return fmt.Errorf("config: token_cache.driver %q is not supported", t.Driver)
	}

	if t.Key == "" {
		t.Key = defaultTokenCacheKey
	}

	ttl, err := parseDurationAllowEmpty(t.TTLRaw)
	if err != nil {
		return fmt.Errorf("config: token_cache.ttl: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultTokenCacheTTL
	}
	t.TTL = ttl

	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
