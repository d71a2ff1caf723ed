package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/app/lib/components/banner"
	authpages "github.com/helixlab/helixdash/app/lib/features/auth"
	"github.com/helixlab/helixdash/app/lib/utils"
	"github.com/helixlab/helixdash/internal/app/domain"
	"github.com/helixlab/helixdash/internal/app/middleware"
	"github.com/helixlab/helixdash/internal/app/models"
)

const minPasswordLength = 8

type AuthHandlers struct {
	*domain.BaseHandler
	authService AuthService
	cookies     *CookieStore
	validate    *validator.Validate
	logger      *zap.Logger
}

func NewAuthHandlers(base *domain.BaseHandler, authService AuthService, cookies *CookieStore, logger *zap.Logger) *AuthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandlers{
		BaseHandler: base,
		authService: authService,
		cookies:     cookies,
		validate:    validator.New(),
		logger:      logger,
	}
}

func (h *AuthHandlers) SignInPage(c *gin.Context) {
	h.RenderPublic(c, http.StatusOK, "Sign in", authpages.SignIn(authpages.SignInProps{Next: c.Query("next")}))
}

func (h *AuthHandlers) SignUpPage(c *gin.Context) {
	h.RenderPublic(c, http.StatusOK, "Sign up", authpages.SignUp())
}

func (h *AuthHandlers) ForgotPasswordPage(c *gin.Context) {
	h.RenderPublic(c, http.StatusOK, "Forgot password", authpages.ForgotPassword())
}

func (h *AuthHandlers) ResetPasswordPage(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		domain.AddFlash(c, domain.FlashError, "The reset link is incomplete. Request a new one.")
		c.Redirect(http.StatusFound, "/auth/forgot-password")
		return
	}
	h.RenderPublic(c, http.StatusOK, "Reset password", authpages.ResetPassword(authpages.ResetProps{Token: token}))
}

// formError answers an HTMX form post with a banner swapped into the form's
// response area. Plain posts get the page again with the banner above it.
func (h *AuthHandlers) formError(c *gin.Context, status int, id, message, description string, page templ.Component) {
	b := banner.Error(id, message, description)
	if middleware.IsHTMX(c) {
		c.Header("HX-Retarget", authpages.ResponseTarget)
		c.Header("HX-Reswap", "innerHTML")
		h.Render(c, status, b)
		return
	}
	h.RenderPublic(c, status, "", utils.Fragment(b, page))
}

func (h *AuthHandlers) success(c *gin.Context, target string) {
	if middleware.IsHTMX(c) {
		c.Header("HX-Redirect", target)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusFound, target)
}

func (h *AuthHandlers) SignIn(c *gin.Context) {
	h.logger.Info("Login attempt", zap.String("remote_addr", c.ClientIP()))

	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	next := middleware.SafeNext(c.PostForm("next"))
	page := authpages.SignIn(authpages.SignInProps{Next: c.PostForm("next"), Email: email})

	if email == "" || password == "" {
		h.formError(c, http.StatusBadRequest, "login-error", "Email and password are required", "", page)
		return
	}

	pair, user, err := h.authService.SignIn(c.Request.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrValidation):
			h.formError(c, http.StatusUnauthorized, "login-invalid", "Invalid email or password",
				"Please check your credentials and try again", page)
		default:
			msg, desc := domain.UserMessage(err)
			h.formError(c, domain.ErrorStatus(err), "login-failed", msg, desc, page)
		}
		return
	}

	h.cookies.WriteSession(c, pair)
	h.logger.Info("Successful login", zap.String("user_id", user.ID), zap.String("next", next))
	h.success(c, next)
}

func (h *AuthHandlers) SignUp(c *gin.Context) {
	h.logger.Info("Registration attempt", zap.String("remote_addr", c.ClientIP()))

	name := strings.TrimSpace(c.PostForm("name"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	confirm := c.PostForm("confirm_password")
	page := authpages.SignUp(authpages.SignUpProps{Name: name, Email: email})

	if email == "" || password == "" || confirm == "" {
		h.formError(c, http.StatusBadRequest, "signup-required", "All required fields must be filled", "", page)
		return
	}
	if err := h.validate.Var(email, "email"); err != nil {
		h.formError(c, http.StatusBadRequest, "signup-email", "Enter a valid email address", "", page)
		return
	}
	if len(password) < minPasswordLength {
		h.formError(c, http.StatusBadRequest, "signup-password-short", "Password is too short",
			"Use at least 8 characters", page)
		return
	}
	if password != confirm {
		h.formError(c, http.StatusBadRequest, "signup-password-mismatch", "Passwords do not match",
			"Please ensure both password fields are identical", page)
		return
	}

	pair, user, err := h.authService.SignUp(c.Request.Context(), name, email, password)
	if err != nil {
		msg, desc := domain.UserMessage(err)
		if errors.Is(err, models.ErrValidation) {
			msg = "Registration failed"
		}
		h.formError(c, domain.ErrorStatus(err), "signup-failed", msg, desc, page)
		return
	}

	h.cookies.WriteSession(c, pair)
	domain.AddFlash(c, domain.FlashSuccess, "Welcome to HelixDash!")
	h.logger.Info("Successful registration", zap.String("user_id", user.ID))
	h.success(c, "/dashboard")
}

func (h *AuthHandlers) ForgotPassword(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	page := authpages.ForgotPassword()
	if err := h.validate.Var(email, "required,email"); err != nil {
		h.formError(c, http.StatusBadRequest, "forgot-email", "Enter a valid email address", "", page)
		return
	}

	err := h.authService.ForgotPassword(c.Request.Context(), email)
	// Unknown addresses get the same answer as known ones.
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		msg, desc := domain.UserMessage(err)
		h.formError(c, domain.ErrorStatus(err), "forgot-failed", msg, desc, page)
		return
	}

	sent := authpages.Sent("If an account exists for that address, a reset link is on its way.")
	if middleware.IsHTMX(c) {
		h.Render(c, http.StatusOK, sent)
		return
	}
	h.RenderPublic(c, http.StatusOK, "Forgot password", sent)
}

func (h *AuthHandlers) ResetPassword(c *gin.Context) {
	token := c.PostForm("token")
	password := c.PostForm("password")
	confirm := c.PostForm("confirm_password")
	page := authpages.ResetPassword(authpages.ResetProps{Token: token})

	switch {
	case token == "":
		h.formError(c, http.StatusBadRequest, "reset-token", "The reset link is incomplete", "Request a new one.", page)
		return
	case len(password) < minPasswordLength:
		h.formError(c, http.StatusBadRequest, "reset-password-short", "Password is too short", "Use at least 8 characters", page)
		return
	case password != confirm:
		h.formError(c, http.StatusBadRequest, "reset-password-mismatch", "Passwords do not match", "", page)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), token, password); err != nil {
		msg, desc := domain.UserMessage(err)
		if errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrNotFound) {
			msg, desc = "The reset link is invalid or has expired", "Request a new one."
		}
		h.formError(c, domain.ErrorStatus(err), "reset-failed", msg, desc, page)
		return
	}

	domain.AddFlash(c, domain.FlashSuccess, "Your password has been updated. Sign in with the new one.")
	h.success(c, "/auth/signin")
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	tokens := h.cookies.Tokens(c)
	if err := h.authService.SignOut(c.Request.Context(), tokens); err != nil {
		h.logger.Warn("Backend sign-out failed, clearing local session anyway", zap.Error(err))
	}
	h.cookies.ClearSession(c)
	domain.AddFlash(c, domain.FlashInfo, "You have been signed out.")
	h.success(c, "/auth/signin")
}

// Refresh renews the session on demand and reports the new expiry, as JSON
// or as a banner for HTMX requests.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	pair := h.cookies.ReadSession(c)
	if !Refreshed(c) {
		fresh, err := h.authService.Refresh(c.Request.Context(), pair.RefreshToken)
		if err != nil {
			h.cookies.ClearSession(c)
			if middleware.IsHTMX(c) {
				middleware.Redirect(c, http.StatusUnauthorized, middleware.SignInURL(c))
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		h.cookies.WriteSession(c, fresh)
		pair = fresh
	}

	_, exp, _ := h.authService.CurrentUser(pair)
	if middleware.IsHTMX(c) {
		desc := ""
		if !exp.IsZero() {
			desc = "The access token is valid until " + exp.Local().Format("15:04:05 MST") + "."
		}
		h.Render(c, http.StatusOK, banner.Banner(banner.BannerProps{
			Type:        banner.BannerSuccess,
			Message:     "Session renewed",
			Description: desc,
			AutoDismiss: 5,
		}))
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": true, "expires_at": exp})
}
