package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/eshop-auth/internal/events"
	"github.com/pribylovaa/eshop-auth/internal/metrics"
	"github.com/pribylovaa/eshop-auth/internal/mocks"
	"github.com/pribylovaa/eshop-auth/internal/models"
	"github.com/pribylovaa/eshop-auth/internal/password"
	"github.com/pribylovaa/eshop-auth/internal/storage"
	"github.com/pribylovaa/eshop-auth/internal/tokens"
)

// Unit-тесты Service на gomock-заглушках хранилищ; кодек и хэшер настоящие.
// Моки: mockgen -source=./internal/storage/storage.go -destination=./internal/mocks/storage.go -package=mocks

const testSecret = "service-unit-secret-0123456789abcdef"

type fakePublisher struct {
	mu     sync.Mutex
	events []events.SecurityEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev events.SecurityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) list() []events.SecurityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.SecurityEvent(nil), p.events...)
}

type testEnv struct {
	svc      *Service
	users    *mocks.MockUserDirectory
	registry *mocks.MockRefreshRegistry
	codec    *tokens.JWT
	hasher   *password.Hasher
	pub      *fakePublisher
	reg      *prometheus.Registry
}

func newCodec(t *testing.T, opts ...tokens.Option) *tokens.JWT {
	t.Helper()
	c, err := tokens.New(tokens.Config{
		Secret:    testSecret,
		Algorithm: "HS256",
		Issuer:    "auth-service",
		Audience:  []string{"api-gateway"},
	}, opts...)
	require.NoError(t, err)
	return c
}

func newSvc(t *testing.T) *testEnv {
	t.Helper()

	ctrl := gomock.NewController(t)
	hasher, err := password.New(bcrypt.MinCost)
	require.NoError(t, err)

	env := &testEnv{
		users:    mocks.NewMockUserDirectory(ctrl),
		registry: mocks.NewMockRefreshRegistry(ctrl),
		codec:    newCodec(t),
		hasher:   hasher,
		pub:      &fakePublisher{},
		reg:      prometheus.NewRegistry(),
	}

	env.svc = New(Deps{
		Users:    env.users,
		Registry: env.registry,
		Codec:    env.codec,
		Hasher:   hasher,
		Events:   env.pub,
		Metrics:  metrics.New(env.reg),
	}, Config{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 168 * time.Hour,
	})

	return env
}

// counter возвращает значение счётчика name (с label result, если задан).
func counter(t *testing.T, reg *prometheus.Registry, name, result string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if result == "" {
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetName() == "result" && l.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}

	return 0
}

func (e *testEnv) user(t *testing.T, email, pw string) *models.User {
	t.Helper()
	digest, err := e.hasher.Hash(pw)
	require.NoError(t, err)
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: digest,
		Role:         models.RoleUser,
		IsActive:     true,
	}
}

// --- Register ---

func TestRegister_OK(t *testing.T) {
	t.Parallel()
	env := newSvc(t)

	env.users.EXPECT().GetByEmail(gomock.Any(), "user@example.com").Return(nil, storage.ErrNotFound)
	env.users.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, u *models.User) error {
			require.Equal(t, "user@example.com", u.Email)
			require.Equal(t, models.RoleUser, u.Role)
			require.True(t, u.IsActive)
			require.False(t, u.IsVerified)
			require.NotEqual(t, "Abcdef1!", u.PasswordHash)
			require.True(t, env.hasher.Verify("Abcdef1!", u.PasswordHash))
			return nil
		})

	u, err := env.svc.Register(context.Background(), " User@Example.com ", "Abcdef1!", " Alice ", "Liddell")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, u.ID)
	require.Equal(t, "Alice", u.FirstName)
	require.Equal(t, "Liddell", u.LastName)
}

func TestRegister_ValidationErrors(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	ctx := context.Background()

	_, err := env.svc.Register(ctx, "not-an-email", "Abcdef1!", "", "")
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = env.svc.Register(ctx, "Bob <bob@example.com>", "Abcdef1!", "", "")
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = env.svc.Register(ctx, "u@e.com", "", "", "")
	require.ErrorIs(t, err, ErrEmptyPassword)

	for _, pw := range []string{"short", "alllowercase1!", "ALLUPPER1!", "NoDigits!!", "NoSpecial12"} {
		_, err = env.svc.Register(ctx, "u@e.com", pw, "", "")
		require.ErrorIs(t, err, ErrWeakPassword, pw)
	}
}

func TestRegister_PasswordOverBcryptLimit(t *testing.T) {
	t.Parallel()
	env := newSvc(t)

	long := "Aa1!" + strings.Repeat("a", 72)
	require.Greater(t, len(long), 72)

	env.users.EXPECT().GetByEmail(gomock.Any(), "long@example.com").Return(nil, storage.ErrNotFound)

	_, err := env.svc.Register(context.Background(), "long@example.com", long, "", "")
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegister_DuplicateOnLookup_RecordUntouched(t *testing.T) {
	t.Parallel()
	env := newSvc(t)

	env.users.EXPECT().GetByEmail(gomock.Any(), "user@example.com").
		Return(&models.User{ID: uuid.New(), Email: "user@example.com"}, nil)
	env.users.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	_, err := env.svc.Register(context.Background(), "user@example.com", "Abcdef1!", "", "")
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegister_DuplicateOnCreate(t *testing.T) {
	t.Parallel()
	env := newSvc(t)

	env.users.EXPECT().GetByEmail(gomock.Any(), "user@example.com").Return(nil, storage.ErrNotFound)
	env.users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(storage.ErrAlreadyExists)

	_, err := env.svc.Register(context.Background(), "user@example.com", "Abcdef1!", "", "")
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRegister_DirectoryFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", context.DeadlineExceeded, ErrUpstreamUnavailable},
		{"canceled", context.Canceled, ErrUpstreamUnavailable},
		{"other", errors.New("db down"), ErrInternal},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newSvc(t)

			env.users.EXPECT().GetByEmail(gomock.Any(), "user@example.com").Return(nil, tt.err)

			_, err := env.svc.Register(context.Background(), "user@example.com", "Abcdef1!", "", "")
			require.ErrorIs(t, err, tt.want)
		})
	}
}

// --- Login ---

func TestLogin_OK(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	u := env.user(t, "user@example.com", "Abcdef1!")

	env.users.EXPECT().GetByEmail(gomock.Any(), "user@example.com").Return(u, nil)
	env.registry.EXPECT().Issue(gomock.Any(), gomock.Any(), u.ID, gomock.Any()).Return(nil)
	env.users.EXPECT().TouchLastLogin(gomock.Any(), u.ID, gomock.Any()).Return(nil)

	pair, got, err := env.svc.Login(context.Background(), "USER@example.com", "Abcdef1!")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotNil(t, got.LastLoginAt)

	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), pair.AccessExpiresAt, 2*time.Second)
	require.WithinDuration(t, time.Now().Add(168*time.Hour), pair.RefreshExpiresAt, 2*time.Second)

	claims, err := env.codec.DecodeKind(pair.AccessToken, models.TokenKindAccess)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.SubjectID)
	require.Equal(t, models.RoleUser, claims.Role)

	require.Equal(t, 1.0, counter(t, env.reg, "auth_login_total", metrics.ResultSuccess))
}

func TestLogin_RegistersRefreshHash(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	u := env.user(t, "user@example.com", "Abcdef1!")

	var registered string
	env.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(u, nil)
	env.registry.EXPECT().Issue(gomock.Any(), gomock.Any(), u.ID, gomock.Any()).DoAndReturn(
		func(_ context.Context, hash string, _ uuid.UUID, _ time.Time) error {
			registered = hash
			return nil
		})
	env.users.EXPECT().TouchLastLogin(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	pair, _, err := env.svc.Login(context.Background(), "user@example.com", "Abcdef1!")
	require.NoError(t, err)
	require.Equal(t, storage.HashToken(pair.RefreshToken), registered)
}

func TestLogin_TouchLastLoginFailureIsSwallowed(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	u := env.user(t, "user@example.com", "Abcdef1!")

	env.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(u, nil)
	env.registry.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	env.users.EXPECT().TouchLastLogin(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("replica read-only"))

	pair, got, err := env.svc.Login(context.Background(), "user@example.com", "Abcdef1!")
	require.NoError(t, err)
	require.NotNil(t, pair)
	require.Nil(t, got.LastLoginAt)
}

func TestLogin_InvalidCredentials_AllCausesLookAlike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		setup  func(t *testing.T, env *testEnv)
		pw     string
		reason string
	}{
		{
			name: "unknown email",
			setup: func(t *testing.T, env *testEnv) {
				env.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)
			},
			pw:     "Abcdef1!",
			reason: reasonUserNotFound,
		},
		{
			name: "inactive user",
			setup: func(t *testing.T, env *testEnv) {
				u := env.user(t, "user@example.com", "Abcdef1!")
				u.IsActive = false
				env.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(u, nil)
			},
			pw:     "Abcdef1!",
			reason: reasonUserInactive,
		},
		{
			name: "wrong password",
			setup: func(t *testing.T, env *testEnv) {
				env.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(env.user(t, "user@example.com", "Abcdef1!"), nil)
			},
			pw:     "Wrong123!",
			reason: reasonPasswordMismatch,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newSvc(t)
			tt.setup(t, env)

			pair, u, err := env.svc.Login(context.Background(), "user@example.com", tt.pw)
			require.ErrorIs(t, err, ErrInvalidCredentials)
			require.Nil(t, pair)
			require.Nil(t, u)

			evs := env.pub.list()
			require.Len(t, evs, 1)
			require.Equal(t, events.TypeLoginFailed, evs[0].Type)
			require.Equal(t, tt.reason, evs[0].Reason)
			require.NotContains(t, evs[0].Email, "user@")

			require.Equal(t, 1.0, counter(t, env.reg, "auth_login_total", metrics.ResultInvalidCredentials))
		})
	}
}

func TestLogin_PublishFailureDoesNotChangeResult(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	env.pub.err = errors.New("kafka down")

	env.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, storage.ErrNotFound)

	_, _, err := env.svc.Login(context.Background(), "ghost@example.com", "Abcdef1!")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_DirectoryTimeout(t *testing.T) {
	t.Parallel()
	env := newSvc(t)

	env.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

	_, _, err := env.svc.Login(context.Background(), "user@example.com", "Abcdef1!")
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.Empty(t, env.pub.list())
}

func TestLogin_RegistryFailure(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	u := env.user(t, "user@example.com", "Abcdef1!")

	env.users.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(u, nil)
	env.registry.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	_, _, err := env.svc.Login(context.Background(), "user@example.com", "Abcdef1!")
	require.ErrorIs(t, err, ErrInternal)
}

// --- Refresh ---

func issue(t *testing.T, c tokens.Codec, sub models.Subject, kind models.TokenKind, ttl time.Duration) string {
	t.Helper()
	tok, _, err := c.Issue(sub, kind, ttl)
	require.NoError(t, err)
	return tok
}

func TestRefresh_OK_RotatesAndKeepsSubject(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	sub := models.Subject{UserID: uuid.New(), Email: "a@example.com", Role: models.RoleAdmin}
	old := issue(t, env.codec, sub, models.TokenKindRefresh, time.Hour)

	gomock.InOrder(
		env.registry.EXPECT().Rotate(gomock.Any(), storage.HashToken(old)).Return(true, nil),
		env.registry.EXPECT().Issue(gomock.Any(), gomock.Any(), sub.UserID, gomock.Any()).Return(nil),
	)

	pair, err := env.svc.Refresh(context.Background(), old)
	require.NoError(t, err)
	require.NotEqual(t, old, pair.RefreshToken)

	claims, err := env.codec.DecodeKind(pair.AccessToken, models.TokenKindAccess)
	require.NoError(t, err)
	require.Equal(t, sub.UserID, claims.SubjectID)
	require.Equal(t, sub.Email, claims.Email)
	require.Equal(t, models.RoleAdmin, claims.Role)

	require.Equal(t, 1.0, counter(t, env.reg, "auth_refresh_total", metrics.ResultSuccess))
}

func TestRefresh_ReuseDetected(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	sub := models.Subject{UserID: uuid.New(), Email: "a@example.com", Role: models.RoleUser}
	old := issue(t, env.codec, sub, models.TokenKindRefresh, time.Hour)

	env.registry.EXPECT().Rotate(gomock.Any(), storage.HashToken(old)).Return(false, nil)
	env.registry.EXPECT().Issue(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := env.svc.Refresh(context.Background(), old)
	require.ErrorIs(t, err, ErrTokenReuseDetected)

	evs := env.pub.list()
	require.Len(t, evs, 1)
	require.Equal(t, events.TypeRefreshTokenReuse, evs[0].Type)
	require.Equal(t, sub.UserID.String(), evs[0].UserID)

	require.Equal(t, 1.0, counter(t, env.reg, "auth_token_reuse_detected_total", ""))
	require.Equal(t, 1.0, counter(t, env.reg, "auth_refresh_total", metrics.ResultReuseDetected))
}

func TestRefresh_TokenErrorsDoNotTouchRegistry(t *testing.T) {
	t.Parallel()

	sub := models.Subject{UserID: uuid.New(), Email: "a@example.com", Role: models.RoleUser}

	tests := []struct {
		name  string
		token func(t *testing.T, env *testEnv) string
		want  error
	}{
		{
			name:  "garbage",
			token: func(*testing.T, *testEnv) string { return "not-a-jwt" },
			want:  ErrInvalidToken,
		},
		{
			name: "access token used as refresh",
			token: func(t *testing.T, env *testEnv) string {
				return issue(t, env.codec, sub, models.TokenKindAccess, time.Hour)
			},
			want: ErrInvalidToken,
		},
		{
			name: "expired",
			token: func(t *testing.T, _ *testEnv) string {
				past := newCodec(t, tokens.WithClock(func() time.Time { return time.Now().Add(-48 * time.Hour) }))
				return issue(t, past, sub, models.TokenKindRefresh, time.Hour)
			},
			want: ErrExpiredToken,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newSvc(t)
			env.registry.EXPECT().Rotate(gomock.Any(), gomock.Any()).Times(0)

			_, err := env.svc.Refresh(context.Background(), tt.token(t, env))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRefresh_RegistryTimeout(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	old := issue(t, env.codec, models.Subject{UserID: uuid.New(), Role: models.RoleUser}, models.TokenKindRefresh, time.Hour)

	env.registry.EXPECT().Rotate(gomock.Any(), gomock.Any()).Return(false, context.DeadlineExceeded)

	_, err := env.svc.Refresh(context.Background(), old)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	require.Empty(t, env.pub.list())
}

// --- Logout ---

func TestLogout(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	ctx := context.Background()

	env.registry.EXPECT().Revoke(gomock.Any(), storage.HashToken("whatever")).Return(nil)
	require.NoError(t, env.svc.Logout(ctx, "whatever"))

	// Пустой токен — no-op.
	require.NoError(t, env.svc.Logout(ctx, ""))

	env.registry.EXPECT().Revoke(gomock.Any(), gomock.Any()).Return(errors.New("conn reset"))
	require.ErrorIs(t, env.svc.Logout(ctx, "x"), ErrInternal)
}

// --- Verify / Me ---

func TestVerify_ActiveUser_RoleFromDirectory(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	u := env.user(t, "a@example.com", "Abcdef1!")
	u.Role = models.RoleSuperAdmin

	access := issue(t, env.codec, models.Subject{UserID: u.ID, Email: u.Email, Role: models.RoleUser}, models.TokenKindAccess, time.Minute)
	env.users.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil)

	id, err := env.svc.Verify(context.Background(), access)
	require.NoError(t, err)
	require.Equal(t, u.ID, id.UserID)
	require.Equal(t, models.RoleSuperAdmin, id.Role)
}

func TestVerify_MissingOrInactiveUser(t *testing.T) {
	t.Parallel()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		env := newSvc(t)
		uid := uuid.New()
		access := issue(t, env.codec, models.Subject{UserID: uid, Role: models.RoleUser}, models.TokenKindAccess, time.Minute)
		env.users.EXPECT().GetByID(gomock.Any(), uid).Return(nil, storage.ErrNotFound)

		_, err := env.svc.Verify(context.Background(), access)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("inactive", func(t *testing.T) {
		t.Parallel()
		env := newSvc(t)
		u := env.user(t, "a@example.com", "Abcdef1!")
		u.IsActive = false
		access := issue(t, env.codec, subjectOf(u), models.TokenKindAccess, time.Minute)
		env.users.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil)

		_, err := env.svc.Verify(context.Background(), access)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("directory timeout", func(t *testing.T) {
		t.Parallel()
		env := newSvc(t)
		uid := uuid.New()
		access := issue(t, env.codec, models.Subject{UserID: uid, Role: models.RoleUser}, models.TokenKindAccess, time.Minute)
		env.users.EXPECT().GetByID(gomock.Any(), uid).Return(nil, context.DeadlineExceeded)

		_, err := env.svc.Verify(context.Background(), access)
		require.ErrorIs(t, err, ErrUpstreamUnavailable)
	})
}

func TestVerify_SkipUserActiveCheck_UsesClaims(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	env.svc.cfg.SkipUserActiveCheck = true

	sub := models.Subject{UserID: uuid.New(), Email: "a@example.com", Role: models.RoleAdmin}
	access := issue(t, env.codec, sub, models.TokenKindAccess, time.Minute)
	env.users.EXPECT().GetByID(gomock.Any(), gomock.Any()).Times(0)

	id, err := env.svc.Verify(context.Background(), access)
	require.NoError(t, err)
	require.Equal(t, sub.UserID, id.UserID)
	require.Equal(t, models.RoleAdmin, id.Role)
}

func TestVerify_TokenErrors(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	sub := models.Subject{UserID: uuid.New(), Role: models.RoleUser}

	_, err := env.svc.Verify(context.Background(), issue(t, env.codec, sub, models.TokenKindRefresh, time.Hour))
	require.ErrorIs(t, err, ErrInvalidToken)

	past := newCodec(t, tokens.WithClock(func() time.Time { return time.Now().Add(-time.Hour) }))
	_, err = env.svc.Verify(context.Background(), issue(t, past, sub, models.TokenKindAccess, time.Minute))
	require.ErrorIs(t, err, ErrExpiredToken)

	_, err = env.svc.Verify(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMe_ReturnsDirectoryRecord(t *testing.T) {
	t.Parallel()
	env := newSvc(t)
	u := env.user(t, "me@example.com", "Abcdef1!")
	u.FirstName = "Alice"

	env.users.EXPECT().GetByID(gomock.Any(), u.ID).Return(u, nil)

	got, err := env.svc.Me(context.Background(), issue(t, env.codec, subjectOf(u), models.TokenKindAccess, time.Minute))
	require.NoError(t, err)
	require.Equal(t, "Alice", got.FirstName)
}
