// Package registry is the HTTP client for the bio.tools tool API. All methods
// build their headers per request; nothing mutates shared client state between
// calls.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"biosync/internal/domain"
)

const (
	toolPath         = "/api/tool/"
	validateToolPath = "/api/tool/validate/"

	maxResponseBody = 1 << 20
)

// Observer receives one callback per registry request, for metrics.
type Observer interface {
	ObserveRegistryRequest(method string, status int)
}

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// HTTPClient overrides the default client, for tests.
	HTTPClient *http.Client
	// Observer is optional.
	Observer Observer
}

type Client struct {
	baseURL  string
	token    string
	http     *http.Client
	logger   *zap.Logger
	observer Observer
}

func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = domain.DefaultRegistryHost
	}
	if _, err := url.Parse(base); err != nil {
		return nil, domain.E(domain.CodeInvalidArgument, "registry.NewClient", fmt.Sprintf("invalid base URL %q", cfg.BaseURL), err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = domain.DefaultRequestTimeoutSeconds * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:  base,
		token:    cfg.Token,
		http:     httpClient,
		logger:   logger.Named("registry"),
		observer: cfg.Observer,
	}, nil
}

// Fetch returns the current remote record, or an error carrying CodeNotFound
// (wrapping domain.ErrToolNotFound) when the tool is not registered.
func (c *Client) Fetch(ctx context.Context, id string) (domain.ToolRecord, error) {
	const op = "registry.Fetch"
	status, body, err := c.do(ctx, http.MethodGet, c.toolURL(id), nil)
	if err != nil {
		return nil, domain.Wrap(domain.CodeUnavailable, op, err)
	}
	switch {
	case status == http.StatusOK:
		record, err := domain.DecodeToolRecord(body)
		if err != nil {
			return nil, domain.E(domain.CodeInternal, op, "malformed registry response", err)
		}
		return record, nil
	case status == http.StatusNotFound:
		return nil, domain.E(domain.CodeNotFound, op, id, domain.ErrToolNotFound)
	default:
		return nil, c.statusError(op, status, body)
	}
}

// ValidateCreate dry-runs a creation. A nil return means the registry would
// accept the record.
func (c *Client) ValidateCreate(ctx context.Context, record domain.ToolRecord) error {
	const op = "registry.ValidateCreate"
	return c.submit(ctx, op, http.MethodPost, c.baseURL+validateToolPath, record)
}

// Create registers a new record via POST /api/tool/.
func (c *Client) Create(ctx context.Context, record domain.ToolRecord) error {
	const op = "registry.Create"
	return c.submit(ctx, op, http.MethodPost, c.baseURL+toolPath, record)
}

// ValidateUpdate dry-runs an update of an existing record.
func (c *Client) ValidateUpdate(ctx context.Context, record domain.ToolRecord) error {
	const op = "registry.ValidateUpdate"
	return c.submit(ctx, op, http.MethodPut, c.toolURL(record.ID())+"validate/", record)
}

// Update replaces an existing record via PUT /api/tool/{id}/.
func (c *Client) Update(ctx context.Context, record domain.ToolRecord) error {
	const op = "registry.Update"
	return c.submit(ctx, op, http.MethodPut, c.toolURL(record.ID()), record)
}

// Delete removes a record. A 404 comes back as an error carrying CodeNotFound
// so callers can downgrade "already gone" to a warning.
func (c *Client) Delete(ctx context.Context, id string) error {
	const op = "registry.Delete"
	status, body, err := c.do(ctx, http.MethodDelete, c.toolURL(id), nil)
	if err != nil {
		return domain.Wrap(domain.CodeUnavailable, op, err)
	}
	switch {
	case status == http.StatusNoContent:
		return nil
	case status == http.StatusNotFound:
		return domain.E(domain.CodeNotFound, op, id, domain.ErrToolNotFound)
	default:
		return c.statusError(op, status, body)
	}
}

func (c *Client) submit(ctx context.Context, op, method, rawURL string, record domain.ToolRecord) error {
	status, body, err := c.do(ctx, method, rawURL, record)
	if err != nil {
		return domain.Wrap(domain.CodeUnavailable, op, err)
	}
	if status >= 200 && status < 300 {
		return nil
	}
	return c.statusError(op, status, body)
}

func (c *Client) toolURL(id string) string {
	return c.baseURL + toolPath + url.PathEscape(id) + "/"
}

// do performs one request with headers assembled immutably per call and
// returns the status and fully read body.
func (c *Client) do(ctx context.Context, method, rawURL string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if c.observer != nil {
			c.observer.ObserveRegistryRequest(method, 0)
		}
		return 0, nil, err
	}
	defer resp.Body.Close()

	if c.observer != nil {
		c.observer.ObserveRegistryRequest(method, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	c.logger.Debug("registry request",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
	)
	return resp.StatusCode, body, nil
}

func (c *Client) statusError(op string, status int, body []byte) *domain.Error {
	detail := Detail(status, body)
	switch {
	case status == http.StatusUnauthorized:
		return domain.E(domain.CodeUnauthenticated, op, detail, nil)
	case status == http.StatusForbidden:
		return domain.E(domain.CodePermissionDenied, op, detail, nil)
	case status == http.StatusNotFound:
		return domain.E(domain.CodeNotFound, op, detail, domain.ErrToolNotFound)
	case status >= 400 && status < 500:
		return domain.E(domain.CodeRejected, op, detail, nil)
	default:
		return domain.E(domain.CodeInternal, op, detail, nil)
	}
}
