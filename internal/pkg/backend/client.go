package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/app/observability/metrics"
	"github.com/helixlab/helixdash/internal/pkg/config"
	"github.com/helixlab/helixdash/internal/pkg/debugger"
)

// maxResponseBytes caps how much of a backend response is buffered.
const maxResponseBytes = 64 << 20

// Client talks to the analysis backend. It logs every exchange and, on a 401,
// refreshes the caller's access token once and replays the request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	tracer     trace.Tracer
	refreshes  singleflight.Group
}

func New(cfg config.BackendConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("backend"),
		tracer: otel.Tracer("helixdash/backend"),
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

func (c *Client) BaseURL() string { return c.baseURL }

type Request struct {
	Method    string
	Path      string
	Query     url.Values
	JSON      any
	Multipart *Multipart
	Accept    string
}

type Multipart struct {
	Fields map[string]string
	Files  []File
}

type File struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// encode renders the body once so a retry after refresh can resend it.
func (r Request) encode() ([]byte, string, error) {
	switch {
	case r.Multipart != nil:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		keys := make([]string, 0, len(r.Multipart.Fields))
		for k := range r.Multipart.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := w.WriteField(k, r.Multipart.Fields[k]); err != nil {
				return nil, "", fmt.Errorf("write multipart field %s: %w", k, err)
			}
		}
		for _, f := range r.Multipart.Files {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
			ct := f.ContentType
			if ct == "" {
				ct = "application/octet-stream"
			}
			h.Set("Content-Type", ct)
			part, err := w.CreatePart(h)
			if err != nil {
				return nil, "", fmt.Errorf("create multipart file %s: %w", f.Name, err)
			}
			if _, err := part.Write(f.Content); err != nil {
				return nil, "", fmt.Errorf("write multipart file %s: %w", f.Name, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("close multipart body: %w", err)
		}
		return buf.Bytes(), w.FormDataContentType(), nil

	case r.JSON != nil:
		body, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request body: %w", err)
		}
		return body, "application/json", nil
	}
	return nil, "", nil
}

// Do sends req with the caller's access token. tokens may be nil for
// anonymous calls.
func (c *Client) Do(ctx context.Context, req Request, tokens TokenStore) (*Response, error) {
	body, contentType, err := req.encode()
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if tokens != nil {
		pair = tokens.Tokens()
	}

	resp, err := c.send(ctx, req, body, contentType, pair.AccessToken)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && pair.RefreshToken != "" {
		accessToken, err := c.renewAccess(ctx, req.Path, pair, tokens)
		if err != nil {
			return nil, err
		}
		resp, err = c.send(ctx, req, body, contentType, accessToken)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, newAPIError(resp.StatusCode, resp.Body)
	}
	return resp, nil
}

// renewAccess returns the access token to replay a rejected request with. When
// another call on the same session already rotated the pair, the stored access
// token is reused and the spent refresh token is not sent again.
func (c *Client) renewAccess(ctx context.Context, path string, sent TokenPair, tokens TokenStore) (string, error) {
	current := tokens.Tokens()
	if current.AccessToken != "" && (current.RefreshToken != sent.RefreshToken || current.AccessToken != sent.AccessToken) {
		c.logger.Info("Access token rejected, session already refreshed", zap.String("path", path))
		return current.AccessToken, nil
	}

	c.logger.Info("Access token rejected, refreshing", zap.String("path", path))
	fresh, err := c.RefreshShared(ctx, sent.RefreshToken)
	if err != nil {
		c.logger.Warn("Token refresh failed", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("%w: %w", models.ErrSessionExpired, err)
	}
	tokens.SetTokens(fresh)
	return fresh.AccessToken, nil
}

// RefreshShared refreshes like Refresh, collapsing concurrent refreshes of the
// same token into one backend call so a rotated refresh token is only spent once.
func (c *Client) RefreshShared(ctx context.Context, refreshToken string) (TokenPair, error) {
	v, err, shared := c.refreshes.Do(refreshToken, func() (any, error) {
		return c.Refresh(context.WithoutCancel(ctx), refreshToken)
	})
	metrics.Get().BackendRefreshTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("shared", shared),
		attribute.Bool("ok", err == nil),
	))
	if err != nil {
		return TokenPair{}, err
	}
	return v.(TokenPair), nil
}

func (c *Client) send(ctx context.Context, req Request, body []byte, contentType, accessToken string) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	ctx, span := c.tracer.Start(ctx, "backend "+method+" "+req.Path, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", req.Path),
	))
	defer span.End()

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create backend request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	accept := req.Accept
	if accept == "" {
		accept = "application/json, text/plain;q=0.9, */*;q=0.8"
	}
	httpReq.Header.Set("Accept", accept)
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagationCarrier(httpReq.Header))

	c.logger.Debug("Backend request",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("body_bytes", len(body)),
		zap.Bool("authenticated", accessToken != ""),
	)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend unreachable")
		c.logger.Error("Backend request failed",
			zap.String("method", method),
			zap.String("url", target),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		c.record(ctx, req.Path, 0, elapsed)
		return nil, fmt.Errorf("%w: %w", models.ErrBackendUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: read response: %w", models.ErrBackendUnavailable, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", httpResp.StatusCode))
	if httpResp.StatusCode >= 400 {
		span.SetStatus(codes.Error, strconv.Itoa(httpResp.StatusCode))
	}
	c.record(ctx, req.Path, httpResp.StatusCode, elapsed)

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", elapsed),
		zap.Int("response_bytes", len(respBody)),
	}
	switch {
	case httpResp.StatusCode >= 500:
		c.logger.Error("Backend response", append(fields, zap.ByteString("body", truncate(respBody)))...)
	case httpResp.StatusCode >= 400:
		c.logger.Warn("Backend response", append(fields, zap.ByteString("body", truncate(respBody)))...)
	default:
		c.logger.Info("Backend response", fields...)
		debugger.LogPayload(c.logger, "Backend response body", respBody)
	}

	return &Response{
		StatusCode:  httpResp.StatusCode,
		ContentType: httpResp.Header.Get("Content-Type"),
		Body:        respBody,
		Duration:    elapsed,
	}, nil
}

func (c *Client) record(ctx context.Context, path string, status int, elapsed time.Duration) {
	metrics.Get().BackendRequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("path", path),
		attribute.Int("status", status),
	))
}

func truncate(b []byte) []byte {
	if len(b) > 512 {
		return b[:512]
	}
	return b
}

type propagationCarrier http.Header

func (h propagationCarrier) Get(key string) string { return http.Header(h).Get(key) }
func (h propagationCarrier) Set(key, value string) { http.Header(h).Set(key, value) }
func (h propagationCarrier) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}
