package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ogurasousui/employee-sync-adapter/internal/core/employee"
	"github.com/ogurasousui/employee-sync-adapter/internal/platform/metrics"
	"github.com/rs/zerolog"
)

const (
	maxResponseBytes = 1 << 20

	opCreate = "create"
	opUpdate = "update"
	opGet    = "get"
)

var defaultMessages = map[string]string{
	opCreate: "Failed to create employee",
	opUpdate: "Failed to update employee",
	opGet:    "Employee not found",
}

// TokenSource は連携先 API 用のアクセストークンを提供します。
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
}

// Client は連携先の社員 API クライアントです。
// すべての失敗は employee.Result の Failure として返され、エラーやパニックは外に出ません。
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// Option は Client の任意設定です。
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient は Client を生成します。baseURL 末尾のスラッシュは取り除かれます。
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		tokens:     tokens,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create は社員を連携先に作成します。
func (c *Client) Create(ctx context.Context, record employee.SyncRecord) employee.Result {
	return c.do(ctx, opCreate, http.MethodPost, "/employees", record)
}

// Update は連携先の社員を更新します。
func (c *Client) Update(ctx context.Context, remoteID string, record employee.SyncRecord) employee.Result {
	return c.do(ctx, opUpdate, http.MethodPut, "/employees/"+url.PathEscape(remoteID), record)
}

// Get は連携先の社員を取得します。
func (c *Client) Get(ctx context.Context, remoteID string) employee.Result {
	return c.do(ctx, opGet, http.MethodGet, "/employees/"+url.PathEscape(remoteID), nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) employee.Result {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		c.metrics.RemoteRequest(op, false)
		c.logger.Error().Err(err).Str("operation", op).Msg("remote authentication failed")
		return employee.Failure(employee.FailureAuth, "OAuth2 authentication failed: "+err.Error())
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			c.metrics.RemoteRequest(op, false)
			c.logger.Error().Err(err).Str("operation", op).Msg("encode remote request failed")
			return employee.TransportFailure(err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		c.metrics.RemoteRequest(op, false)
		c.logger.Error().Err(err).Str("operation", op).Msg("build remote request failed")
		return employee.TransportFailure(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("operation", op).Str("method", method).Str("path", path).Msg("calling remote API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RemoteRequest(op, false)
		c.logger.Error().Err(err).Str("operation", op).Str("path", path).Msg("remote request failed")
		return employee.TransportFailure(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.RemoteRequest(op, false)
		c.logger.Error().Err(err).Str("operation", op).Str("path", path).Msg("read remote response failed")
		return employee.TransportFailure(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		data, err := decodeData(raw)
		if err != nil {
			c.metrics.RemoteRequest(op, false)
			c.logger.Error().Err(err).Str("operation", op).Int("status", resp.StatusCode).Msg("invalid remote response")
			return employee.Failure(employee.FailureRemote, "Invalid response from remote API")
		}
		c.metrics.RemoteRequest(op, true)
		return employee.Success(data)
	}

	c.metrics.RemoteRequest(op, false)

	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.tokens.ClearToken(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("failed to clear rejected access token")
		}
	}

	message := errorMessage(raw)
	if message == "" {
		message = defaultMessages[op]
	}

	c.logger.Error().
		Str("operation", op).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("body", snippet(raw, 512)).
		Msg("remote API returned an error")

	return employee.Failure(employee.FailureRemote, message)
}

// decodeData は成功レスポンスの data フィールドを取り出します。数値は json.Number として返します。
func decodeData(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return map[string]any{}, nil
	}

	// 数値の ID を float64 に丸めないよう json.Number のまま保持する。
	dec := json.NewDecoder(bytes.NewReader(envelope.Data))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// errorMessage は error.message、なければトップレベルの message を返します。
func errorMessage(raw []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	if len(body.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
	}
	return body.Message
}

func snippet(b []byte, limit int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
