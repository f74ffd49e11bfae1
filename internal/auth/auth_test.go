package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/wuwenbin0122/guild-recruit/internal/auth"
	"github.com/wuwenbin0122/guild-recruit/internal/db"
	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

func newService(t *testing.T, opts ...auth.Option) (*auth.Service, *db.MemoryStore) {
	t.Helper()
	store := db.NewMemoryStore()
	opts = append([]auth.Option{auth.WithBcryptCost(bcrypt.MinCost)}, opts...)
	svc, err := auth.NewService("test-secret", time.Hour, store, opts...)
	if err != nil {
		t.Fatalf("unexpected error creating auth service: %v", err)
	}
	return svc, store
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	svc, _ := newService(t)

	registerResult, err := svc.Register(context.Background(), auth.RegisterInput{
		Username: "alice",
		Password: "s3cret!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if registerResult.Token == "" {
		t.Fatalf("expected token on registration")
	}

	if registerResult.User.Username != "alice" {
		t.Fatalf("expected username alice, got %s", registerResult.User.Username)
	}

	if registerResult.User.Role != models.RoleCandidate {
		t.Fatalf("expected candidate role, got %s", registerResult.User.Role)
	}

	if registerResult.User.PasswordHash != "" {
		t.Fatalf("expected password hash to be stripped from result")
	}

	identity, err := svc.VerifyToken(registerResult.Token)
	if err != nil {
		t.Fatalf("verify token failed: %v", err)
	}

	if identity.ID != registerResult.User.ID || identity.Username != "alice" || identity.Role != models.RoleCandidate {
		t.Fatalf("unexpected identity %+v", identity)
	}

	loginResult, err := svc.Login(context.Background(), auth.LoginInput{
		Username: "alice",
		Password: "s3cret!",
	})
	if err != nil {
		t.Fatalf("login returned error: %v", err)
	}

	if loginResult.User.ID != registerResult.User.ID {
		t.Fatalf("expected login user to match registered user")
	}
}

func TestAuthServiceDuplicateRegistrationKeepsFirstAccount(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, auth.RegisterInput{Username: "alice", Password: "first-pass"}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if _, err := svc.Register(ctx, auth.RegisterInput{Username: "alice", Password: "second-pass"}); !errors.Is(err, auth.ErrUserExists) {
		t.Fatalf("expected duplicate username error, got %v", err)
	}

	if _, err := svc.Login(ctx, auth.LoginInput{Username: "alice", Password: "first-pass"}); err != nil {
		t.Fatalf("expected original credentials to remain valid, got %v", err)
	}

	if _, err := svc.Login(ctx, auth.LoginInput{Username: "alice", Password: "second-pass"}); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected second password to be rejected, got %v", err)
	}
}

func TestAuthServiceLoginDoesNotRevealUnknownUsers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, auth.RegisterInput{Username: "alice", Password: "s3cret!"}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	_, wrongPassword := svc.Login(ctx, auth.LoginInput{Username: "alice", Password: "wrong!"})
	_, unknownUser := svc.Login(ctx, auth.LoginInput{Username: "mallory", Password: "wrong!"})

	if !errors.Is(wrongPassword, auth.ErrInvalidCredentials) || !errors.Is(unknownUser, auth.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for both, got %v and %v", wrongPassword, unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Fatalf("expected identical messages, got %q and %q", wrongPassword, unknownUser)
	}
}

func TestAuthServiceLoginTimingIsComparable(t *testing.T) {
	store := db.NewMemoryStore()
	svc, err := auth.NewService("test-secret", time.Hour, store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	if _, err := svc.Register(ctx, auth.RegisterInput{Username: "alice", Password: "s3cret!"}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	measure := func(username string) time.Duration {
		start := time.Now()
		for i := 0; i < 3; i++ {
			_, _ = svc.Login(ctx, auth.LoginInput{Username: username, Password: "wrong!"})
		}
		return time.Since(start)
	}

	known := measure("alice")
	unknown := measure("mallory")

	// Both paths run a full-cost bcrypt comparison, so neither should be
	// an order of magnitude faster.
	if unknown*5 < known || known*5 < unknown {
		t.Fatalf("login timing differs too much: known=%s unknown=%s", known, unknown)
	}
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input auth.RegisterInput
		want  error
	}{
		{name: "short username", input: auth.RegisterInput{Username: "al", Password: "s3cret!"}, want: auth.ErrInvalidUsername},
		{name: "padded username", input: auth.RegisterInput{Username: " alice", Password: "s3cret!"}, want: auth.ErrInvalidUsername},
		{name: "short password", input: auth.RegisterInput{Username: "alice", Password: "123"}, want: auth.ErrPasswordTooWeak},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestVerifyTokenErrors(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc, _ := newService(t, auth.WithClock(clock))

	result, err := svc.Register(context.Background(), auth.RegisterInput{Username: "alice", Password: "s3cret!"})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if _, err := svc.VerifyToken(""); !errors.Is(err, auth.ErrMissingToken) {
		t.Fatalf("expected missing token, got %v", err)
	}

	if _, err := svc.VerifyToken("not-a-jwt"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	tampered := result.Token[:len(result.Token)-2] + "xx"
	if _, err := svc.VerifyToken(tampered); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token for tampered signature, got %v", err)
	}

	other, err := auth.NewService("other-secret", time.Hour, db.NewMemoryStore(), auth.WithBcryptCost(bcrypt.MinCost), auth.WithClock(clock))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := other.VerifyToken(result.Token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token for foreign secret, got %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := svc.VerifyToken(result.Token); !errors.Is(err, auth.ErrExpiredToken) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestVerifyTokenRejectsUnsignedAlgorithms(t *testing.T) {
	svc, _ := newService(t)

	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Username: "mallory",
		Role:     models.RoleOfficer,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	if _, err := svc.VerifyToken(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestAuthorizeRoles(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	candidate, err := svc.Register(ctx, auth.RegisterInput{Username: "candidate", Password: "s3cret!"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret!"), bcrypt.MinCost)
	for _, u := range []*models.User{
		{Username: "officer", PasswordHash: string(hash), Role: models.RoleOfficer},
		{Username: "admin", PasswordHash: string(hash), Role: models.RoleAdmin},
	} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	officer, err := svc.Login(ctx, auth.LoginInput{Username: "officer", Password: "s3cret!"})
	if err != nil {
		t.Fatalf("login officer: %v", err)
	}
	admin, err := svc.Login(ctx, auth.LoginInput{Username: "admin", Password: "s3cret!"})
	if err != nil {
		t.Fatalf("login admin: %v", err)
	}

	if _, err := svc.Authorize(candidate.Token); err != nil {
		t.Fatalf("expected any role to pass without requirements, got %v", err)
	}
	if _, err := svc.Authorize(candidate.Token, models.RoleOfficer); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("expected forbidden for candidate, got %v", err)
	}
	if identity, err := svc.Authorize(officer.Token, models.RoleOfficer); err != nil || identity.Role != models.RoleOfficer {
		t.Fatalf("expected officer to pass, got %+v, %v", identity, err)
	}
	if _, err := svc.Authorize(admin.Token, models.RoleOfficer); err != nil {
		t.Fatalf("expected admin to pass officer check, got %v", err)
	}
	if _, err := svc.Authorize("", models.RoleOfficer); !errors.Is(err, auth.ErrMissingToken) {
		t.Fatalf("expected missing token, got %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc.def":  "abc.def",
		"bearer abc.def":  "abc.def",
		"Basic abc":       "",
		"abc.def":         "",
		"":                "",
		"Bearer   tok  ": "tok",
	}
	for header, want := range cases {
		if got := auth.BearerToken(header); got != want {
			t.Fatalf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
