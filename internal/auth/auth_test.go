package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type memoryUsers struct {
	users   map[string]User
	updated map[string]string
}

func (m *memoryUsers) UserByUsername(_ context.Context, username string) (User, error) {
	u, ok := m.users[username]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	if m.updated == nil {
		m.updated = make(map[string]string)
	}
	m.updated[userID] = hash
	return nil
}

func mustTokens(t *testing.T, opts ...TokenOption) *Tokens {
	t.Helper()
	tokens, err := NewTokens("test-secret", opts...)
	if err != nil {
		t.Fatalf("NewTokens: %v", err)
	}
	return tokens
}

func TestIssueAndVerify(t *testing.T) {
	tokens := mustTokens(t, WithIssuer("test-issuer"), WithTTL(30*time.Minute))
	token, exp, err := tokens.Issue(User{ID: "u1", Username: "admin", Role: "admin"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiration, got %v", exp)
	}
	claims, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "u1" || claims.Username != "admin" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "test-issuer" || claims.ID == "" {
		t.Fatalf("registered claims not populated: %+v", claims.RegisteredClaims)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	tokens := mustTokens(t)
	token, _, err := tokens.Issue(User{ID: "u1", Username: "admin", Role: "admin"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := mustTokens(t)
	other.secret = []byte("another-secret")
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := tokens.Verify("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
	if _, err := tokens.Verify(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}

	later := mustTokens(t, WithClock(func() time.Time { return time.Now().Add(25 * time.Hour) }))
	if _, err := later.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := tokens.Verify(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg none to be rejected, got %v", err)
	}
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := NewTokens("  "); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}

func TestLogin(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	users := &memoryUsers{users: map[string]User{
		"admin": {ID: "u1", Username: "admin", PasswordHash: hash, Role: "admin"},
	}}
	svc := NewService(users, mustTokens(t), nil)
	ctx := context.Background()

	session, err := svc.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Token == "" || session.User.ID != "u1" || session.User.Role != "admin" {
		t.Fatalf("unexpected session: %+v", session)
	}
	claims, err := svc.Verify(session.Token)
	if err != nil || claims.Username != "admin" {
		t.Fatalf("token from login does not verify: %v %+v", err, claims)
	}

	if _, err := svc.Login(ctx, "admin", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong password, got %v", err)
	}
	if _, err := svc.Login(ctx, "ghost", "admin123"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown user, got %v", err)
	}
	if _, err := svc.Login(ctx, "", "admin123"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing username, got %v", err)
	}
	if _, err := svc.Login(ctx, "admin", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing password, got %v", err)
	}
}

func TestLoginUpgradesPlaintextPassword(t *testing.T) {
	users := &memoryUsers{users: map[string]User{
		"legacy": {ID: "u2", Username: "legacy", PasswordHash: "plain-pass", Role: "user"},
	}}
	svc := NewService(users, mustTokens(t), nil)

	if _, err := svc.Login(context.Background(), "legacy", "plain-pass"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	upgraded, ok := users.updated["u2"]
	if !ok || !strings.HasPrefix(upgraded, "$2") {
		t.Fatalf("expected bcrypt upgrade, got %q", upgraded)
	}
	if needs, err := VerifyPassword(upgraded, "plain-pass"); err != nil || needs {
		t.Fatalf("upgraded hash does not verify: needs=%v err=%v", needs, err)
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := UserIDFromContext(ctx); ok {
		t.Fatalf("expected no user in empty context")
	}
	ctx = ContextWithClaims(ctx, &Claims{UserID: "user-7", Username: "ana"})
	id, ok := UserIDFromContext(ctx)
	if !ok || id != "user-7" {
		t.Fatalf("unexpected user id: %s, ok=%v", id, ok)
	}
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.Username != "ana" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}
