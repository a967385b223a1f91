// Package remote はRemote Store（サーバのHTTP API）を叩く薄いクライアント。
// 失敗はすべて syncerr の分類済みエラーで返す。
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

	"github.com/go-faster/errors"

	"storefront/internal/syncerr"
)

const (
	defaultUserAgent = "storefront/0.1"
	requestTimeout   = 10 * time.Second
)

// ErrNoIdentity はトークン無しで認証必須APIを呼んだとき。呼び出し側のバグ。
var ErrNoIdentity = errors.Wrap(syncerr.ErrRemoteUnauthorized, "no identity")

// TokenSource はBearerトークンを返す。identity.TokenGate が実装する。
type TokenSource interface {
	Token() string
}

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	userAgent string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(baseURL string, tokens TokenSource, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		tokens:    tokens,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("api url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse api url")
	}
	if u.Host == "" {
		return nil, errors.Errorf("api url %q has no host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

func (c *Client) Carts() *Carts                 { return &Carts{c: c} }
func (c *Client) Favorites() *Favorites         { return &Favorites{c: c} }
func (c *Client) SiteConfig() *SiteConfig       { return &SiteConfig{c: c} }
func (c *Client) Catalog() *Catalog             { return &Catalog{c: c} }
func (c *Client) AdminProducts() *AdminProducts { return &AdminProducts{c: c} }
func (c *Client) AdminCarts() *AdminCarts       { return &AdminCarts{c: c} }

func (c *Client) AdminAuditLogs() *AdminAuditLogs { return &AdminAuditLogs{c: c} }

type errorBody struct {
	Error string `json:"error"`
}

// do はリクエストを1回送る。authがtrueならトークン必須。
func (c *Client) do(ctx context.Context, method, path string, auth bool, body, dest any) error {
	op := method + " " + path

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "%s: encode body", op)
		}
		rdr = bytes.NewReader(b)
	}

	// pathは escape 済みのセグメントで組み立ててある
	reqURL := *c.baseURL
	reqURL.RawPath = c.baseURL.EscapedPath() + path
	if p, err := url.PathUnescape(reqURL.RawPath); err == nil {
		reqURL.Path = p
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), rdr)
	if err != nil {
		return errors.Wrapf(err, "%s: create request", op)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if auth {
		tok := ""
		if c.tokens != nil {
			tok = c.tokens.Token()
		}
		if tok == "" {
			return ErrNoIdentity
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return syncerr.Transient(err, op)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&eb)
		if eb.Error != "" {
			op += " (" + eb.Error + ")"
		}
		return syncerr.FromStatus(resp.StatusCode, op)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return syncerr.Transient(errors.Wrap(err, "decode response"), op)
	}
	return nil
}

func escape(id string) string {
	return url.PathEscape(id)
}
