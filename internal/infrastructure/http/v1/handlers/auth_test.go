package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/apperror"
	appctx "adminpanel/internal/core/context"
	"adminpanel/internal/domain/auth"
	"adminpanel/internal/infrastructure/http/v1/middleware"
)

type fakeAuth struct {
	loginErr    error
	forgotCalls []string
	loggedOut   int64
	confirmed   [2]string
}

func (f *fakeAuth) Login(_ context.Context, req auth.LoginRequest) (*auth.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &auth.Session{
		AccessToken:          "access",
		RefreshToken:         "refresh",
		AccessTokenExpiresAt: time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC),
		User:                 auth.UserInfo{ID: 1, Username: req.Username},
	}, nil
}

func (f *fakeAuth) RefreshToken(context.Context, string) (*auth.Session, error) {
	return nil, apperror.NewInvalidToken()
}

func (f *fakeAuth) Logout(_ context.Context, userID int64) error {
	f.loggedOut = userID
	return nil
}

func (f *fakeAuth) ForgotPassword(_ context.Context, email string) error {
	f.forgotCalls = append(f.forgotCalls, email)
	return nil
}

func (f *fakeAuth) ResetPassword(context.Context, auth.ResetPasswordRequest) error {
	return apperror.NewPasswordMismatch()
}

func (f *fakeAuth) Register(_ context.Context, req auth.RegisterRequest) (*auth.User, error) {
	return &auth.User{Username: req.Username, Email: req.Email, FullName: req.FullName, IsActive: true}, nil
}

func (f *fakeAuth) ConfirmEmail(_ context.Context, email, token string) error {
	f.confirmed = [2]string{email, token}
	return nil
}

func (f *fakeAuth) Me(_ context.Context, userID int64) (*auth.UserInfo, error) {
	return &auth.UserInfo{ID: userID, Username: "admin", Roles: []string{"Admin"}}, nil
}

type loginCounter []string

func (l *loginCounter) LoginOutcome(outcome string) { *l = append(*l, outcome) }

func newAuthRouter(svc *fakeAuth, counter *loginCounter, user *appctx.UserContext) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())

	public := r.Group("/auth")
	protected := r.Group("/auth")
	protected.Use(func(c *gin.Context) {
		if user != nil {
			c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
		}
		c.Next()
	})
	var logins LoginCounter
	if counter != nil {
		logins = counter
	}
	NewAuthHandler(NewBaseHandler(), svc, logins).RegisterRoutes(public, protected)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Login(t *testing.T) {
	counter := &loginCounter{}
	r := newAuthRouter(&fakeAuth{}, counter, nil)

	w := do(r, http.MethodPost, "/auth/login", `{"username":"admin","password":"Admin@123"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		TokenType    string `json:"tokenType"`
		User         struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "refresh", resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, "admin", resp.User.Username)
	assert.Equal(t, loginCounter{"success"}, *counter)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"bad credentials", apperror.NewInvalidCredentials(), http.StatusUnauthorized, apperror.CodeInvalidCredentials},
		{"disabled", apperror.NewAccountDisabled(), http.StatusForbidden, apperror.CodeAccountDisabled},
		{"locked", apperror.NewAccountLocked(), http.StatusLocked, apperror.CodeAccountLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := &loginCounter{}
			r := newAuthRouter(&fakeAuth{loginErr: tt.err}, counter, nil)

			w := do(r, http.MethodPost, "/auth/login", `{"username":"admin","password":"wrong"}`)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
			assert.Equal(t, loginCounter{tt.code}, *counter)
		})
	}
}

func TestAuthHandler_LoginRejectsMissingFields(t *testing.T) {
	counter := &loginCounter{}
	r := newAuthRouter(&fakeAuth{}, counter, nil)

	w := do(r, http.MethodPost, "/auth/login", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, *counter)
}

func TestAuthHandler_ForgotPasswordIsUniform(t *testing.T) {
	svc := &fakeAuth{}
	r := newAuthRouter(svc, nil, nil)

	known := do(r, http.MethodPost, "/auth/forgot-password", `{"email":"admin@system.com"}`)
	unknown := do(r, http.MethodPost, "/auth/forgot-password", `{"email":"nobody@example.com"}`)

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
	assert.Equal(t, []string{"admin@system.com", "nobody@example.com"}, svc.forgotCalls)
}

func TestAuthHandler_ResetPasswordError(t *testing.T) {
	r := newAuthRouter(&fakeAuth{}, nil, nil)

	w := do(r, http.MethodPost, "/auth/reset-password",
		`{"email":"a@b.com","token":"t","newPassword":"x","confirmPassword":"y"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodePasswordMismatch)
}

func TestAuthHandler_ConfirmEmailFromLink(t *testing.T) {
	svc := &fakeAuth{}
	r := newAuthRouter(svc, nil, nil)

	w := do(r, http.MethodGet, "/auth/confirm-email?email=a%40b.com&token=abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [2]string{"a@b.com", "abc"}, svc.confirmed)
}

func TestAuthHandler_Register(t *testing.T) {
	r := newAuthRouter(&fakeAuth{}, nil, nil)

	w := do(r, http.MethodPost, "/auth/register",
		`{"username":"jdoe","email":"j@d.com","password":"Secret@1","confirmPassword":"Secret@1","fullName":"John Doe"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"jdoe"`)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthHandler_ProtectedRoutes(t *testing.T) {
	t.Run("logout uses caller id", func(t *testing.T) {
		svc := &fakeAuth{}
		r := newAuthRouter(svc, nil, &appctx.UserContext{UserID: 42})

		w := do(r, http.MethodPost, "/auth/logout", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, int64(42), svc.loggedOut)
	})

	t.Run("me", func(t *testing.T) {
		r := newAuthRouter(&fakeAuth{}, nil, &appctx.UserContext{UserID: 5})

		w := do(r, http.MethodGet, "/auth/me", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"id":5`)
	})

	t.Run("anonymous", func(t *testing.T) {
		r := newAuthRouter(&fakeAuth{}, nil, nil)

		w := do(r, http.MethodGet, "/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
