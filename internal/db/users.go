package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := dbNow()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := p.Pool.Exec(ctx, query, user.ID, user.Username, user.PasswordHash, string(user.Role), now, now); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("postgres: insert user: %w", err)
	}

	return nil
}

func (p *Postgres) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE username = $1`

	var (
		user models.User
		role string
	)
	err := p.Pool.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres: query user: %w", err)
	}
	user.Role = models.UserRole(role)

	return &user, nil
}

// SetUserRole changes an account's role. Used by provisioning scripts.
func (p *Postgres) SetUserRole(ctx context.Context, username string, role models.UserRole) error {
	const query = `UPDATE users SET role = $2, updated_at = $3 WHERE username = $1`
	tag, err := p.Pool.Exec(ctx, query, username, string(role), dbNow())
	if err != nil {
		return fmt.Errorf("postgres: update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
