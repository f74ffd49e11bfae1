package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

const applicationColumns = `id, user_id, battletag, char_name, realm, char_class, spec, desired_role,
	experience, ui, addons, availability, reason, referral,
	ilvl, raid_progress, progress_percent, score, status, officer_notes, created_at, updated_at`

func (p *Postgres) CreateApplication(ctx context.Context, app *models.Application) error {
	raid, err := json.Marshal(raidOrEmpty(app.RaidProgress))
	if err != nil {
		return fmt.Errorf("postgres: encode raid progress: %w", err)
	}

	now := dbNow()
	query := `INSERT INTO applications (user_id, battletag, char_name, realm, char_class, spec, desired_role,
			experience, ui, addons, availability, reason, referral,
			ilvl, raid_progress, progress_percent, score, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $19)
		RETURNING ` + applicationColumns

	row := p.Pool.QueryRow(ctx, query,
		app.UserID,
		app.Battletag,
		app.CharName,
		app.Realm,
		app.CharClass,
		app.Spec,
		app.DesiredRole,
		app.Experience,
		app.UI,
		app.Addons,
		app.Availability,
		app.Reason,
		app.Referral,
		app.ItemLevel,
		raid,
		app.ProgressPercent,
		app.Score,
		string(models.StatusNew),
		now,
	)

	created, err := scanApplication(row)
	if err != nil {
		return fmt.Errorf("postgres: insert application: %w", err)
	}
	*app = *created

	return nil
}

func (p *Postgres) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`

	app, err := scanApplication(p.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres: query application: %w", err)
	}

	return app, nil
}

func (p *Postgres) ListApplications(ctx context.Context) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications`
	return p.queryApplications(ctx, query)
}

func (p *Postgres) ListApplicationsByUser(ctx context.Context, userID string) ([]models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE user_id = $1 ORDER BY id ASC`
	return p.queryApplications(ctx, query, userID)
}

// UpdateApplicationStatus is a single statement so concurrent reviewers
// never interleave partial writes; the last one wins.
func (p *Postgres) UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus, officerNotes *string) (*models.Application, error) {
	query := `UPDATE applications
		SET status = $2, officer_notes = COALESCE($3::text, officer_notes), updated_at = $4
		WHERE id = $1
		RETURNING ` + applicationColumns

	app, err := scanApplication(p.Pool.QueryRow(ctx, query, id, string(status), officerNotes, dbNow()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("postgres: update application status: %w", err)
	}

	return app, nil
}

func (p *Postgres) queryApplications(ctx context.Context, query string, args ...any) ([]models.Application, error) {
	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query applications: %w", err)
	}
	defer rows.Close()

	apps := make([]models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate applications: %w", err)
	}

	return apps, nil
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var (
		app    models.Application
		raid   []byte
		status string
	)

	err := row.Scan(
		&app.ID,
		&app.UserID,
		&app.Battletag,
		&app.CharName,
		&app.Realm,
		&app.CharClass,
		&app.Spec,
		&app.DesiredRole,
		&app.Experience,
		&app.UI,
		&app.Addons,
		&app.Availability,
		&app.Reason,
		&app.Referral,
		&app.ItemLevel,
		&raid,
		&app.ProgressPercent,
		&app.Score,
		&status,
		&app.OfficerNotes,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	app.Status = models.ApplicationStatus(status)
	if len(raid) > 0 {
		if err := json.Unmarshal(raid, &app.RaidProgress); err != nil {
			return nil, fmt.Errorf("decode raid progress: %w", err)
		}
	}

	return &app, nil
}

func raidOrEmpty(tiers []models.RaidTier) []models.RaidTier {
	if tiers == nil {
		return []models.RaidTier{}
	}
	return tiers
}
