package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Astemirdum/fabtrack/config"
	"github.com/Astemirdum/fabtrack/internal/errs"
	"github.com/Astemirdum/fabtrack/pkg/circuit_breaker"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	bearer              = "Bearer "
)

type tokenKey struct{}

// WithToken attaches the session's bearer token to ctx. Every call made with
// that ctx is authenticated with it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

var errServerFailure = errors.New("backend 5xx")

type Client struct {
	log     *zap.Logger
	client  *http.Client
	baseURL string
	cb      circuit_breaker.CircuitBreaker
}

func NewClient(log *zap.Logger, cfg config.Backend) *Client {
	return &Client{
		log:     log.Named("api"),
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cb:      circuit_breaker.New(20, 5*time.Second, 0.5, 2),
	}
}

// Do sends in as JSON (nil means no body) and returns the raw response body of
// a 2xx answer. Non-2xx answers come back as *errs.APIError, transport failures
// and an open breaker as errs.ErrBackendUnavailable.
func (c *Client) Do(ctx context.Context, method, path string, in any) ([]byte, error) {
	var (
		data   []byte
		status int
	)
	start := time.Now()
	err := c.cb.Call(func() error {
		var err error
		data, status, err = c.send(ctx, method, path, in)
		if err != nil {
			return err
		}
		if status >= http.StatusInternalServerError {
			return errServerFailure
		}
		return nil
	})
	c.log.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
		zap.Error(err),
	)
	if err != nil && !errors.Is(err, errServerFailure) {
		if errors.Is(err, circuit_breaker.ErrOpenCB) {
			return nil, errors.Wrap(errs.ErrBackendUnavailable, "circuit open")
		}
		return nil, errors.Wrap(errs.ErrBackendUnavailable, err.Error())
	}
	if status >= http.StatusBadRequest {
		return nil, apiError(status, data)
	}
	return data, nil
}

func (c *Client) send(ctx context.Context, method, path string, in any) ([]byte, int, error) {
	body := io.Reader(http.NoBody)
	if in != nil {
		b := bytes.NewBuffer(nil)
		if err := json.NewEncoder(b).Encode(in); err != nil {
			return nil, 0, errors.Wrap(err, "encode request")
		}
		body = b
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	if in != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set(AuthorizationHeader, bearer+token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, "read response")
	}
	return data, resp.StatusCode, nil
}

func apiError(status int, data []byte) *errs.APIError {
	var body errs.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Text() != "" {
		return &errs.APIError{Status: status, Message: body.Text(), Parsed: true}
	}
	return &errs.APIError{Status: status, Message: "request failed with status " + strconv.Itoa(status)}
}
