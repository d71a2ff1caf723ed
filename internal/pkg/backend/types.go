package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/helixlab/helixdash/internal/app/models"
)

// TokenPair is the credential set issued by the backend auth endpoints.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	IssuedAt     time.Time
}

func (p TokenPair) Empty() bool { return p.AccessToken == "" && p.RefreshToken == "" }

// UnmarshalJSON accepts both {"access_token","refresh_token"} and the shorter
// {"access","refresh"} / {"token"} shapes.
func (p *TokenPair) UnmarshalJSON(data []byte) error {
	var raw struct {
		AccessToken  string `json:"access_token"`
		Access       string `json:"access"`
		Token        string `json:"token"`
		RefreshToken string `json:"refresh_token"`
		Refresh      string `json:"refresh"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.AccessToken = firstNonEmpty(raw.AccessToken, raw.Access, raw.Token)
	p.RefreshToken = firstNonEmpty(raw.RefreshToken, raw.Refresh)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// TokenStore gives the client access to the caller's session so a refreshed
// pair can be written back (to cookies, in the web handlers).
type TokenStore interface {
	Tokens() TokenPair
	SetTokens(TokenPair)
}

// StaticTokens is an in-memory TokenStore.
type StaticTokens struct {
	Pair TokenPair
}

func (s *StaticTokens) Tokens() TokenPair     { return s.Pair }
func (s *StaticTokens) SetTokens(p TokenPair) { s.Pair = p }

type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	Duration    time.Duration
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType, "json")
}

func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode backend response: %w", err)
	}
	return nil
}

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps HTTP statuses onto the domain errors handlers switch on.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return models.ErrUnauthenticated
	case e.StatusCode == http.StatusForbidden:
		return models.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return models.ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return models.ErrRateLimited
	case e.StatusCode == http.StatusBadRequest, e.StatusCode == http.StatusUnprocessableEntity:
		return models.ErrValidation
	case e.StatusCode >= 500:
		return models.ErrBackendUnavailable
	}
	return nil
}

const maxErrorBody = 2048

func newAPIError(status int, body []byte) *APIError {
	msg := extractMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	raw := string(body)
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody]
	}
	return &APIError{StatusCode: status, Message: msg, Body: raw}
}

// extractMessage reads detail/message/error from a JSON error body, or returns
// a short plain-text body as is.
func extractMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			switch v := payload[key].(type) {
			case string:
				if v != "" {
					return v
				}
			case []any:
				if len(v) > 0 {
					return fmt.Sprint(v[0])
				}
			}
		}
		return ""
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 || strings.HasPrefix(text, "<") {
		return ""
	}
	return text
}
