// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/domain/auth"
	"adminpanel/internal/infrastructure/http/v1/dto"
)

// AuthService is the authentication surface used by AuthHandler.
type AuthService interface {
	Login(ctx context.Context, req auth.LoginRequest) (*auth.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*auth.Session, error)
	Logout(ctx context.Context, userID int64) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) error
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	ConfirmEmail(ctx context.Context, email, token string) error
	Me(ctx context.Context, userID int64) (*auth.UserInfo, error)
}

// LoginCounter counts login outcomes.
type LoginCounter interface {
	LoginOutcome(outcome string)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service AuthService
	logins  LoginCounter
}

// NewAuthHandler creates a new auth handler. logins may be nil.
func NewAuthHandler(base *BaseHandler, service AuthService, logins LoginCounter) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
		logins:      logins,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.ToAuthRequest())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.CreatedWith(c, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	h.countLogin(err)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSession(session))
}

func (h *AuthHandler) countLogin(err error) {
	if h.logins == nil {
		return
	}
	if err == nil {
		h.logins.LoginOutcome("success")
		return
	}
	if appErr, ok := apperror.AsAppError(err); ok {
		h.logins.LoginOutcome(appErr.Code)
		return
	}
	h.logins.LoginOutcome(apperror.CodeInternal)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSession(session))
}

// ForgotPassword handles POST /auth/forgot-password.
// The response is the same whether or not the address is known.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "if the address is registered, a reset link has been sent")
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req.ToAuthRequest()); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "password has been reset")
}

// ConfirmEmail handles GET and POST /auth/confirm-email. The link in the
// confirmation mail uses the query string form.
func (h *AuthHandler) ConfirmEmail(c *gin.Context) {
	var req dto.ConfirmEmailRequest
	if c.Request.Method == http.MethodGet {
		if !h.BindQuery(c, &req) {
			return
		}
	} else if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ConfirmEmail(c.Request.Context(), req.Email, req.Token); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "email confirmed")
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.CurrentUserID(c)
	if !ok {
		return
	}

	info, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, info)
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup, throttled ...gin.HandlerFunc) {
	public.POST("/register", h.Register)
	public.POST("/login", chain(throttled, h.Login)...)
	public.POST("/refresh", h.Refresh)
	public.POST("/forgot-password", chain(throttled, h.ForgotPassword)...)
	public.POST("/reset-password", h.ResetPassword)
	public.GET("/confirm-email", h.ConfirmEmail)
	public.POST("/confirm-email", h.ConfirmEmail)

	protected.POST("/logout", h.Logout)
	protected.GET("/me", h.Me)
}

func chain(pre []gin.HandlerFunc, last gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(pre)+1)
	out = append(out, pre...)
	return append(out, last)
}
