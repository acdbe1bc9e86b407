package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spence/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
	assert.False(t, CheckPassword("not-a-hash", "hunter22"))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	user := core.User{ID: 42, Email: "a@example.com"}

	token, err := issuer.Issue(user)
	require.NoError(t, err)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenVerifyFailures(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	user := core.User{ID: 42, Email: "a@example.com"}

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("ffffffffffffffffffffffffffffffff", time.Hour)
		token, err := other.Issue(user)
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		shortLived := NewTokenIssuer(testSecret, -time.Minute)
		token, err := shortLived.Issue(user)
		require.NoError(t, err)
		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

// fakeUserRepo implements UserRepository in memory for service tests.
type fakeUserRepo struct {
	byEmail map[string]core.User
	nextID  int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]core.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, email, passwordHash string) (core.User, error) {
	if _, exists := f.byEmail[email]; exists {
		return core.User{}, core.ErrEmailTaken
	}
	user := core.User{ID: f.nextID, Email: email, PasswordHash: passwordHash}
	f.nextID++
	f.byEmail[email] = user
	return user, nil
}

func (f *fakeUserRepo) UserByEmail(_ context.Context, email string) (core.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return user, nil
}

func newTestService() (*Service, *fakeUserRepo) {
	repo := newFakeUserRepo()
	issuer := NewTokenIssuer(testSecret, time.Hour)
	return NewService(repo, issuer, bcrypt.MinCost), repo
}

func TestServiceRegister(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	token, err := svc.Register(ctx, "a@example.com", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	stored := repo.byEmail["a@example.com"]
	assert.NotEqual(t, "password1", stored.PasswordHash, "password must be stored hashed")

	_, err = svc.Register(ctx, "a@example.com", "password1")
	assert.ErrorIs(t, err, core.ErrEmailTaken)
}

func TestServiceRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name      string
		email     string
		password  string
		wantField string
	}{
		{name: "empty email", email: "", password: "password1", wantField: "email"},
		{name: "malformed email", email: "not-an-email", password: "password1", wantField: "email"},
		{name: "short password", email: "a@example.com", password: "short", wantField: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.email, tt.password)
			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.wantField)
		})
	}
}

func TestServiceLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@example.com", "password1")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "a@example.com", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.Login(ctx, "a@example.com", "wrong-password")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials,
		"unknown email and bad password must be indistinguishable")
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	token, err := issuer.Issue(core.User{ID: 7, Email: "a@example.com"})
	require.NoError(t, err)

	var gotUserID int64
	handler := Middleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r.Context())
		require.True(t, ok)
		gotUserID = id
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "valid token", authHeader: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", authHeader: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer junk", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}

	assert.Equal(t, int64(7), gotUserID)
}

func TestUserIDAbsent(t *testing.T) {
	_, ok := UserID(context.Background())
	assert.False(t, ok)

	id, ok := UserID(WithUserID(context.Background(), 3))
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
}

func TestVerifyRejectsNonNumericSubject(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)

	claims := jwt.RegisteredClaims{
		Subject:   "not-a-user-id",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
