package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/core/apperror"
	"adminpanel/internal/core/security"
	"adminpanel/internal/core/tx"
	"adminpanel/internal/domain/audit"
)

// --- fakes ---

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*User
	roles  map[int64][]int64
	names  map[int64]string
}

func newMemUsers() *memUsers {
	return &memUsers{
		nextID: 1,
		byID:   map[int64]*User{},
		roles:  map[int64][]int64{},
		names:  map[int64]string{1: "Admin", 2: "User"},
	}
}

func (m *memUsers) put(u *User) *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.byID[u.ID] = &cp
	return u
}

func (m *memUsers) find(pred func(*User) bool) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if !u.IsDeleted && pred(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", nil)
}

func (m *memUsers) GetByID(_ context.Context, userID int64) (*User, error) {
	return m.find(func(u *User) bool { return u.ID == userID })
}

func (m *memUsers) GetByUsernameForUpdate(_ context.Context, username string) (*User, error) {
	return m.find(func(u *User) bool { return u.Username == username })
}

func (m *memUsers) GetByRefreshTokenForUpdate(_ context.Context, digest string) (*User, error) {
	return m.find(func(u *User) bool { return u.RefreshToken != nil && *u.RefreshToken == digest })
}

func (m *memUsers) GetByEmailForUpdate(_ context.Context, email string) (*User, error) {
	return m.find(func(u *User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memUsers) ExistsByUsername(_ context.Context, username string, excludeID int64) (bool, error) {
	_, err := m.find(func(u *User) bool { return u.Username == username && u.ID != excludeID })
	return err == nil, nil
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string, excludeID int64) (bool, error) {
	_, err := m.find(func(u *User) bool { return strings.EqualFold(u.Email, email) && u.ID != excludeID })
	return err == nil, nil
}

func (m *memUsers) Create(_ context.Context, u *User) error {
	m.put(u)
	return nil
}

func (m *memUsers) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) RoleNames(_ context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, id := range m.roles[userID] {
		out = append(out, m.names[id])
	}
	sort.Strings(out)
	return out, nil
}

func (m *memUsers) ReplaceRoles(_ context.Context, userID int64, roleIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[userID] = append([]int64(nil), roleIDs...)
	return nil
}

func (m *memUsers) stored(id int64) *User {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.byID[id]
	return &cp
}

type staticPermissions []string

func (p staticPermissions) ResolvePermissionCodes(context.Context, int64) ([]string, error) {
	return p, nil
}

// plainHasher keeps tests fast; the PBKDF2 hasher has its own tests.
type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "h:" + pw, nil }
func (plainHasher) Verify(pw, encoded string) bool { return encoded == "h:"+pw }

type sentMail struct {
	kind  string
	email string
	token string
}

type memMailer struct {
	sent []sentMail
}

func (m *memMailer) SendPasswordReset(_ context.Context, u *User, token string) error {
	m.sent = append(m.sent, sentMail{"reset", u.Email, token})
	return nil
}

func (m *memMailer) SendWelcome(_ context.Context, u *User) error {
	m.sent = append(m.sent, sentMail{"welcome", u.Email, ""})
	return nil
}

func (m *memMailer) SendEmailConfirmation(_ context.Context, u *User, token string) error {
	m.sent = append(m.sent, sentMail{"confirm", u.Email, token})
	return nil
}

type auditEvent struct {
	kind   string
	userID int64
	action audit.Action
}

type memRecorder struct {
	events []auditEvent
}

func (r *memRecorder) RecordLogin(_ context.Context, userID int64, _, _ string) {
	r.events = append(r.events, auditEvent{kind: "login", userID: userID, action: audit.ActionLogin})
}

func (r *memRecorder) RecordLogout(_ context.Context, userID int64, _ string) {
	r.events = append(r.events, auditEvent{kind: "logout", userID: userID, action: audit.ActionLogout})
}

func (r *memRecorder) Record(_ context.Context, entity string, entityID int64, action audit.Action, _, _ any) {
	r.events = append(r.events, auditEvent{kind: entity, userID: entityID, action: action})
}

type fixture struct {
	svc      *Service
	users    *memUsers
	mailer   *memMailer
	recorder *memRecorder
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    newMemUsers(),
		mailer:   &memMailer{},
		recorder: &memRecorder{},
		clock:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret-test-secret-test-secret"))
	jwtSvc.now = func() time.Time { return f.clock }
	f.svc = NewService(f.users, staticPermissions{"Users.View", "Roles.View"}, plainHasher{},
		jwtSvc, f.mailer, f.recorder, tx.Passthrough, DefaultServiceConfig())
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) addUser(username, password string) *User {
	u := f.users.put(&User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "h:" + password,
		FullName:     "Test " + username,
		IsActive:     true,
	})
	f.users.roles[u.ID] = []int64{2}
	return u
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("alice", "Secret1")

	session, err := f.svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)

	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, f.clock.Add(60*time.Minute), session.AccessTokenExpiresAt)
	assert.Equal(t, f.clock.Add(7*24*time.Hour), session.RefreshTokenExpiresAt)
	assert.Equal(t, []string{"User"}, session.User.Roles)
	assert.Equal(t, []string{"Users.View", "Roles.View"}, session.User.Permissions)

	stored := f.users.stored(u.ID)
	require.NotNil(t, stored.RefreshToken)
	assert.Equal(t, security.HashToken(session.RefreshToken), *stored.RefreshToken)
	assert.NotEqual(t, session.RefreshToken, *stored.RefreshToken)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, 0, stored.FailedLoginAttempts)

	require.Len(t, f.recorder.events, 1)
	assert.Equal(t, audit.ActionLogin, f.recorder.events[0].action)
}

func TestLogin_TokenCarriesClaims(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice", "Secret1")

	session, err := f.svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)

	claims, err := f.svc.jwt.Parse(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Users.View,Roles.View", claims.Permissions)
	assert.Equal(t, []string{"User"}, claims.Roles)
}

func TestLogin_UnknownUserAndWrongPasswordLookAlike(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice", "Secret1")

	_, errUnknown := f.svc.Login(context.Background(), LoginRequest{Username: "nobody", Password: "x"})
	_, errWrong := f.svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong"})

	a, ok := apperror.AsAppError(errUnknown)
	require.True(t, ok)
	b, ok := apperror.AsAppError(errWrong)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidCredentials, a.Code)
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Message, b.Message)
	assert.Empty(t, f.recorder.events)
}

func TestLogin_LocksAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("alice", "Secret1")
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "bad"})
		require.True(t, apperror.IsCode(err, apperror.CodeInvalidCredentials))
		assert.Equal(t, i, f.users.stored(u.ID).FailedLoginAttempts)
	}

	_, err := f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "bad"})
	require.True(t, apperror.IsCode(err, apperror.CodeInvalidCredentials))

	stored := f.users.stored(u.ID)
	assert.Equal(t, 0, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockoutEnd)
	assert.Equal(t, f.clock.Add(15*time.Minute), *stored.LockoutEnd)

	// Correct password is rejected while locked, with no state change.
	_, err = f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "Secret1"})
	assert.True(t, apperror.IsCode(err, apperror.CodeAccountLocked))
	after := f.users.stored(u.ID)
	assert.Equal(t, 0, after.FailedLoginAttempts)
	assert.Nil(t, after.LastLoginAt)

	// Lockout expires.
	f.clock = f.clock.Add(16 * time.Minute)
	_, err = f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)
	assert.Nil(t, f.users.stored(u.ID).LockoutEnd)
}

func TestLogin_Disabled(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("alice", "Secret1")
	u.IsActive = false
	require.NoError(t, f.users.Update(context.Background(), u))

	_, err := f.svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "Secret1"})
	assert.True(t, apperror.IsCode(err, apperror.CodeAccountDisabled))
}

func TestLogin_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Login(context.Background(), LoginRequest{})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Len(t, appErr.Messages(), 2)
}

// --- Refresh / Logout ---

func TestRefreshToken_RotatesAndInvalidatesOld(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice", "Secret1")
	ctx := context.Background()

	first, err := f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)

	second, err := f.svc.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = f.svc.RefreshToken(ctx, first.RefreshToken)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidToken))

	_, err = f.svc.RefreshToken(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefreshToken_Expired(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice", "Secret1")
	ctx := context.Background()

	session, err := f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)

	f.clock = f.clock.Add(8 * 24 * time.Hour)
	_, err = f.svc.RefreshToken(ctx, session.RefreshToken)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidToken))
}

func TestRefreshToken_DisabledUser(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("alice", "Secret1")
	ctx := context.Background()

	session, err := f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)

	stored := f.users.stored(u.ID)
	stored.IsActive = false
	require.NoError(t, f.users.Update(ctx, stored))

	_, err = f.svc.RefreshToken(ctx, session.RefreshToken)
	assert.True(t, apperror.IsCode(err, apperror.CodeAccountDisabled))
}

func TestRefreshToken_Empty(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.RefreshToken(context.Background(), "  ")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidToken))
}

func TestLogout_ClearsTokenAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("alice", "Secret1")
	ctx := context.Background()

	session, err := f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "Secret1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, u.ID))
	assert.Nil(t, f.users.stored(u.ID).RefreshToken)

	_, err = f.svc.RefreshToken(ctx, session.RefreshToken)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidToken))

	require.NoError(t, f.svc.Logout(ctx, u.ID))
	require.NoError(t, f.svc.Logout(ctx, 999))
}

// --- Forgot / Reset password ---

func TestForgotPassword_UnknownEmailSucceedsSilently(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.ForgotPassword(context.Background(), "ghost@example.com"))
	assert.Empty(t, f.mailer.sent)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("alice", "Secret1")
	ctx := context.Background()

	require.NoError(t, f.svc.ForgotPassword(ctx, u.Email))
	require.Len(t, f.mailer.sent, 1)
	token := f.mailer.sent[0].token
	require.NotEmpty(t, token)

	stored := f.users.stored(u.ID)
	require.NotNil(t, stored.PasswordResetToken)
	assert.Equal(t, security.HashToken(token), *stored.PasswordResetToken)

	err := f.svc.ResetPassword(ctx, ResetPasswordRequest{
		Email: u.Email, Token: token, NewPassword: "Better2", ConfirmPassword: "Better2",
	})
	require.NoError(t, err)

	stored = f.users.stored(u.ID)
	assert.Equal(t, "h:Better2", stored.PasswordHash)
	assert.Nil(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetTokenExpiry)

	// The token is single use.
	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{
		Email: u.Email, Token: token, NewPassword: "Better3", ConfirmPassword: "Better3",
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidToken))
}

func TestResetPassword_CheckOrder(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("alice", "Secret1")
	ctx := context.Background()

	require.NoError(t, f.svc.ForgotPassword(ctx, u.Email))
	token := f.mailer.sent[0].token

	tests := []struct {
		name    string
		req     ResetPasswordRequest
		advance time.Duration
		code    string
	}{
		{
			name: "wrong token beats mismatch",
			req:  ResetPasswordRequest{Email: u.Email, Token: "nope", NewPassword: "Aa1aaa", ConfirmPassword: "Bb1bbb"},
			code: apperror.CodeInvalidToken,
		},
		{
			name: "unknown email",
			req:  ResetPasswordRequest{Email: "ghost@example.com", Token: token, NewPassword: "Aa1aaa", ConfirmPassword: "Aa1aaa"},
			code: apperror.CodeInvalidToken,
		},
		{
			name: "mismatch",
			req:  ResetPasswordRequest{Email: u.Email, Token: token, NewPassword: "Aa1aaa", ConfirmPassword: "Bb1bbb"},
			code: apperror.CodePasswordMismatch,
		},
		{
			name: "weak password",
			req:  ResetPasswordRequest{Email: u.Email, Token: token, NewPassword: "weak", ConfirmPassword: "weak"},
			code: apperror.CodeValidation,
		},
		{
			name:    "expired beats mismatch",
			req:     ResetPasswordRequest{Email: u.Email, Token: token, NewPassword: "Aa1aaa", ConfirmPassword: "Bb1bbb"},
			advance: 25 * time.Hour,
			code:    apperror.CodeTokenExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.clock = f.clock.Add(tt.advance)
			err := f.svc.ResetPassword(ctx, tt.req)
			assert.True(t, apperror.IsCode(err, tt.code), "got %v", err)
		})
	}
}

// --- Register / ConfirmEmail ---

func validRegistration() RegisterRequest {
	return RegisterRequest{
		Username:        "new_user",
		Email:           "new@example.com",
		Password:        "Passw0rd",
		ConfirmPassword: "Passw0rd",
		FullName:        "New User",
		PhoneNumber:     "0512345678",
	}
}

func TestRegister_CreatesUserWithDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	stored := f.users.stored(u.ID)
	assert.Equal(t, int64(1), stored.TenantID)
	assert.True(t, stored.IsActive)
	assert.False(t, stored.EmailConfirmed)
	assert.Equal(t, "h:Passw0rd", stored.PasswordHash)
	assert.Equal(t, []int64{2}, f.users.roles[u.ID])
	require.NotNil(t, stored.PhoneNumber)

	require.Len(t, f.mailer.sent, 2)
	assert.Equal(t, "welcome", f.mailer.sent[0].kind)
	assert.Equal(t, "confirm", f.mailer.sent[1].kind)
	require.NotNil(t, stored.EmailConfirmationToken)
	assert.Equal(t, security.HashToken(f.mailer.sent[1].token), *stored.EmailConfirmationToken)

	require.Len(t, f.recorder.events, 1)
	assert.Equal(t, audit.EntityUser, f.recorder.events[0].kind)
	assert.Equal(t, audit.ActionCreate, f.recorder.events[0].action)
}

func TestRegister_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	req := validRegistration()
	req.Email = "other@example.com"
	_, err = f.svc.Register(ctx, req)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, "username", appErr.Details["field"])

	req = validRegistration()
	req.Username = "other_user"
	_, err = f.svc.Register(ctx, req)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "email", appErr.Details["field"])
}

func TestRegister_PasswordMismatch(t *testing.T) {
	f := newFixture(t)
	req := validRegistration()
	req.ConfirmPassword = "Different1"
	_, err := f.svc.Register(context.Background(), req)
	assert.True(t, apperror.IsCode(err, apperror.CodePasswordMismatch))
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
		want   string
	}{
		{"short username", func(r *RegisterRequest) { r.Username = "ab" }, "username must be at least 3 characters"},
		{"bad username chars", func(r *RegisterRequest) { r.Username = "bad name" }, "username may contain only letters, digits and underscores"},
		{"bad email", func(r *RegisterRequest) { r.Email = "nope" }, "email is not a valid address"},
		{"no digit", func(r *RegisterRequest) { r.Password = "Password"; r.ConfirmPassword = "Password" }, "password must contain a digit"},
		{"no upper", func(r *RegisterRequest) { r.Password = "passw0rd"; r.ConfirmPassword = "passw0rd" }, "password must contain an uppercase letter"},
		{"bad phone", func(r *RegisterRequest) { r.PhoneNumber = "123" }, "phoneNumber must match 05XXXXXXXX"},
		{"short name", func(r *RegisterRequest) { r.FullName = "A" }, "fullName must be at least 2 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validRegistration()
			tt.mutate(&req)
			_, err := f.svc.Register(context.Background(), req)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Messages(), tt.want)
		})
	}
}

func TestConfirmEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	token := f.mailer.sent[1].token

	err = f.svc.ConfirmEmail(ctx, u.Email, "wrong")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidToken))

	require.NoError(t, f.svc.ConfirmEmail(ctx, u.Email, token))
	stored := f.users.stored(u.ID)
	assert.True(t, stored.EmailConfirmed)
	assert.Nil(t, stored.EmailConfirmationToken)

	err = f.svc.ConfirmEmail(ctx, u.Email, token)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidToken))
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	u := f.addUser("alice", "Secret1")

	info, err := f.svc.Me(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", info.Username)
	assert.Equal(t, []string{"User"}, info.Roles)

	_, err = f.svc.Me(context.Background(), 404)
	assert.True(t, apperror.IsNotFound(err))
}
