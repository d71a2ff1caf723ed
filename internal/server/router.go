package server

import (
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/pkg/config"
	"github.com/helixlab/helixdash/internal/routes"
)

const sessionName = "helixdash_session"

// SetupRouter configures and returns the Gin router with all middleware and routes
func SetupRouter(cfg *config.Config, deps routes.Dependencies, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.MaxMultipartMemory = cfg.Server.MaxUploadBytes

	r.Use(middleware.RequestID())
	r.Use(ginzap.GinzapWithConfig(logger, &ginzap.Config{
		UTC:        true,
		TimeFormat: time.RFC3339,
		Context:    zapContextFunc(),
		SkipPaths:  []string{"/healthz"},
	}))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(middleware.OTELGinMiddleware(cfg.Observability.ServiceName))
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins))
	r.Use(middleware.SecurityMiddleware())
	r.Use(middleware.Metrics())

	store := cookie.NewStore([]byte(cfg.Cookies.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		Domain:   cfg.Cookies.Domain,
		MaxAge:   int(cfg.JWT.RefreshTokenTTL.Seconds()),
		Secure:   cfg.Cookies.Secure,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, store))

	if err := SetupAssets(r); err != nil {
		return nil, err
	}
	routes.Setup(r, deps, logger)

	return r, nil
}

// zapContextFunc returns the Zap context function for logging
func zapContextFunc() ginzap.Fn {
	return func(c *gin.Context) []zapcore.Field {
		fields := []zapcore.Field{}

		if requestID := middleware.GetRequestID(c); requestID != "" {
			fields = append(fields, zap.String("request_id", requestID))
		}

		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			fields = append(fields,
				zap.String("trace_id", span.SpanContext().TraceID().String()),
				zap.String("span_id", span.SpanContext().SpanID().String()),
			)
		}

		if form := loggedForm(c); len(form) > 0 {
			fields = append(fields, zap.Any("form", form))
		}

		if middleware.IsHTMX(c) {
			fields = append(fields, zap.Bool("htmx", true))
			if target := c.GetHeader("HX-Target"); target != "" {
				fields = append(fields, zap.String("hx_target", target))
			}
		}
		if userID := c.GetString("user_id"); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		return fields
	}
}

const maxLoggedValue = 64

var redactedFields = map[string]bool{
	"password":         true,
	"confirm_password": true,
	"token":            true,
	"refresh_token":    true,
}

// loggedForm returns the urlencoded form the handler parsed, with secrets
// redacted and long values such as sequences cut short. Multipart uploads
// are not logged.
func loggedForm(c *gin.Context) map[string]string {
	if c.Request.Method != http.MethodPost || c.Request.PostForm == nil {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		return nil
	}
	out := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		v := strings.Join(values, ",")
		switch {
		case redactedFields[key]:
			v = "[REDACTED]"
		case len(v) > maxLoggedValue:
			v = v[:maxLoggedValue] + "..."
		}
		out[key] = v
	}
	return out
}
