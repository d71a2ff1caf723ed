package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/app/observability/metrics"
)

// Define typed context keys
type contextKey string

const (
	UserContextKey  contextKey = "user"
	RequestIDKey    contextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"
)

// RequestID assigns every request an id, reusing a well-formed incoming one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(string(RequestIDKey), id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(string(RequestIDKey))
}

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// Redirect handles redirects for both regular and HTMX requests. HTMX
// requests get HX-Redirect with the given status since a 302 would be
// followed by the XHR and swapped into the page.
func Redirect(c *gin.Context, status int, target string) {
	if IsHTMX(c) {
		c.Header("HX-Redirect", target)
		c.AbortWithStatus(status)
		return
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

// SignInURL builds the sign-in redirect carrying the page to return to.
func SignInURL(c *gin.Context) string {
	next := c.Request.URL.RequestURI()
	if IsHTMX(c) {
		if current := c.GetHeader("HX-Current-URL"); current != "" {
			if u, err := url.Parse(current); err == nil {
				next = u.RequestURI()
			}
		}
	}
	if next == "" || next == "/" || strings.HasPrefix(next, "/auth/") {
		return "/auth/signin"
	}
	return "/auth/signin?next=" + url.QueryEscape(next)
}

// SafeNext keeps post-login redirects on this site.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/dashboard"
	}
	return next
}

// SecurityMiddleware adds security headers
func SecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Content-Type-Options", "nosniff")
		c.Writer.Header().Set("X-Frame-Options", "DENY")
		c.Writer.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// HTMX, Plotly and 3Dmol load from CDNs; generated audio is a data URI.
		csp := "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://unpkg.com https://cdn.jsdelivr.net https://cdn.plot.ly https://3Dmol.org https://3dmol.csb.pitt.edu; " +
			"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
			"font-src 'self' https://fonts.gstatic.com; " +
			"img-src 'self' data: blob:; " +
			"media-src 'self' data: blob:; " +
			"connect-src 'self'; " +
			"worker-src 'self' blob:"
		c.Writer.Header().Set("Content-Security-Policy", csp)

		c.Next()
	}
}

// Metrics records request counts and durations by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m := metrics.Get()
		ctx := c.Request.Context()
		m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		))
		m.HTTPRequestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
		))
	}
}

func SetUser(c *gin.Context, user *models.User) {
	c.Set(string(UserContextKey), user)
	c.Set("user_id", user.ID)
	c.Set("user_email", user.Email)
	c.Set("user_role", user.Role)
}

// GetUserFromContext extracts user information from Gin context
func GetUserFromContext(c *gin.Context) *models.User {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	userModel, ok := user.(*models.User)
	if !ok {
		return nil
	}
	return userModel
}

// GetUserIDFromContext extracts just the user ID from context
func GetUserIDFromContext(c *gin.Context) string {
	if id := c.GetString("user_id"); id != "" {
		return id
	}
	return "anonymous"
}
