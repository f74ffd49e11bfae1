package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/wuwenbin0122/guild-recruit/internal/db"
	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

var (
	ErrSecretRequired     = errors.New("auth: jwt secret required")
	ErrUserExists         = errors.New("auth: user already exists")
	ErrInvalidUsername    = errors.New("auth: username must be 3-32 characters without surrounding spaces")
	ErrPasswordTooWeak    = errors.New("auth: password must be 6-72 characters")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrMissingToken       = errors.New("auth: missing token")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrExpiredToken       = errors.New("auth: token expired")
	ErrForbidden          = errors.New("auth: forbidden")
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLen = 72
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	ID       string
	Username string
	Role     models.UserRole
}

// Claims is the signed token payload.
type Claims struct {
	jwt.RegisteredClaims
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

type Service struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	users UserStore

	// dummyHash is compared against when a username is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

type Option func(*Service)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost overrides the hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(secret string, ttl time.Duration, users UserStore, opts ...Option) (*Service, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if users == nil {
		return nil, errors.New("auth: user store required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	s := &Service{
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    func() time.Time { return time.Now().UTC() },
		users:  users,
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("guild-recruit-dummy-password"), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: prepare dummy hash: %w", err)
	}
	s.dummyHash = dummy

	return s, nil
}

// Register creates a candidate account and signs a token for it.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := input.Username
	if strings.TrimSpace(username) != username || len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return nil, ErrInvalidUsername
	}
	if len(input.Password) < minPasswordLen || len(input.Password) > maxPasswordLen {
		return nil, ErrPasswordTooWeak
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleCandidate,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("auth: create user: %w", err)
	}

	return s.issue(user)
}

// Login checks credentials. Unknown users and wrong passwords produce the
// same error after the same amount of hashing work.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if input.Username == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindUserByUsername(ctx, input.Username)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("auth: lookup user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(input.Password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// VerifyToken decodes and validates a bearer token.
func (s *Service) VerifyToken(token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.Subject == "" || claims.Username == "" || !knownRole(claims.Role) {
		return nil, ErrInvalidToken
	}

	return &Identity{ID: claims.Subject, Username: claims.Username, Role: claims.Role}, nil
}

// Authorize verifies the token and, when roles are given, requires the
// bearer to hold one of them. Admins pass any officer check.
func (s *Service) Authorize(token string, roles ...models.UserRole) (*Identity, error) {
	identity, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	if len(roles) == 0 || slices.Contains(roles, identity.Role) {
		return identity, nil
	}
	if identity.Role == models.RoleAdmin && slices.Contains(roles, models.RoleOfficer) {
		return identity, nil
	}

	return nil, ErrForbidden
}

func (s *Service) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user.Sanitize(),
	}, nil
}

func (s *Service) generateToken(user *models.User) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: user.Username,
		Role:     user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}

	return signed, expiresAt, nil
}

func knownRole(role models.UserRole) bool {
	switch role {
	case models.RoleCandidate, models.RoleOfficer, models.RoleAdmin:
		return true
	}
	return false
}
