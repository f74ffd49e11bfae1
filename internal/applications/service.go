// Package applications runs the recruitment workflow: candidates submit,
// officers review and move applications between statuses.
package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/wuwenbin0122/guild-recruit/internal/characters"
	"github.com/wuwenbin0122/guild-recruit/internal/db"
	"github.com/wuwenbin0122/guild-recruit/internal/models"
	"github.com/wuwenbin0122/guild-recruit/internal/review"
)

var (
	ErrApplicationNotFound = errors.New("applications: application not found")
	ErrProfileNotFound     = errors.New("applications: character profile not archived")
)

// Store persists applications.
type Store interface {
	CreateApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id int64) (*models.Application, error)
	ListApplications(ctx context.Context) ([]models.Application, error)
	ListApplicationsByUser(ctx context.Context, userID string) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus, officerNotes *string) (*models.Application, error)
}

// Archive keeps the character profile captured when an application was submitted.
type Archive interface {
	SaveProfile(ctx context.Context, applicationID int64, profile models.CharacterProfile) error
	FindProfile(ctx context.Context, applicationID int64) (*models.CharacterProfile, error)
}

// Recorder receives workflow events for metrics.
type Recorder interface {
	ApplicationSubmitted()
	StatusChanged(status models.ApplicationStatus)
	CharacterLookup(result string)
}

type Service struct {
	store    Store
	archive  Archive
	lookup   characters.Lookup
	recorder Recorder
	logger   *zap.Logger
	validate *validator.Validate
}

type Option func(*Service)

// WithArchive stores the looked up profile next to each new application.
func WithArchive(archive Archive) Option {
	return func(s *Service) { s.archive = archive }
}

// WithLookup enriches submissions with character data.
func WithLookup(lookup characters.Lookup) Option {
	return func(s *Service) { s.lookup = lookup }
}

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("applications: store required")
	}

	s := &Service{
		store:    store,
		recorder: nopRecorder{},
		logger:   zap.NewNop(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Submit validates fields and stores a new application owned by userID.
// Status and timestamps are always assigned here, never taken from input.
func (s *Service) Submit(ctx context.Context, userID string, fields models.ApplicationFields) (*models.Application, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("applications: user id required")
	}

	fields = trimFields(fields)
	if err := validateFields(s.validate, fields); err != nil {
		return nil, err
	}

	app := &models.Application{
		UserID:            userID,
		ApplicationFields: fields,
		Status:            models.StatusNew,
	}

	profile := s.enrich(ctx, app)

	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, fmt.Errorf("applications: create: %w", err)
	}
	s.recorder.ApplicationSubmitted()

	if profile != nil && s.archive != nil {
		if err := s.archive.SaveProfile(ctx, app.ID, *profile); err != nil {
			s.logger.Warn("archive character profile failed",
				zap.Int64("application_id", app.ID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("application submitted",
		zap.Int64("application_id", app.ID),
		zap.String("user_id", userID),
		zap.String("character", app.CharName+"-"+app.Realm),
	)

	return app, nil
}

// enrich fills the derived fields from the character lookup. A failed lookup
// leaves them zero.
func (s *Service) enrich(ctx context.Context, app *models.Application) *models.CharacterProfile {
	if s.lookup == nil {
		return nil
	}

	profile, err := s.lookup.Lookup(ctx, app.CharName, app.Realm)
	if err != nil {
		result := "error"
		if errors.Is(err, characters.ErrCharacterNotFound) {
			result = "not_found"
		}
		s.recorder.CharacterLookup(result)
		s.logger.Warn("character lookup failed; storing application without profile data",
			zap.String("character", app.CharName),
			zap.String("realm", app.Realm),
			zap.Error(err),
		)
		return nil
	}
	s.recorder.CharacterLookup("found")

	app.ItemLevel = profile.ItemLevel
	app.RaidProgress = profile.RaidProgress
	app.ProgressPercent = profile.ProgressPercent
	review.Derive(app)

	return profile
}

// List returns every application matching c in the requested order.
func (s *Service) List(ctx context.Context, c review.Criteria) ([]models.Application, error) {
	apps, err := s.store.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("applications: list: %w", err)
	}
	return review.Apply(apps, c), nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return app, nil
}

// ListForUser returns the caller's own applications, newest first, without
// officer notes.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Application, error) {
	apps, err := s.store.ListApplicationsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("applications: list for user: %w", err)
	}

	apps = review.Apply(apps, review.Criteria{SortBy: review.SortByCreatedAt, Order: review.Descending})
	for i := range apps {
		apps[i] = apps[i].ForCandidate()
	}
	return apps, nil
}

// UpdateStatus moves an application to status. Nil notes keep the stored
// notes. Any status may follow any other.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status models.ApplicationStatus, officerNotes *string) (*models.Application, error) {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return nil, invalidField("status", "must be one of New, Contacted, Trial, Rejected, Accepted")
	}

	app, err := s.store.UpdateApplicationStatus(ctx, id, status, officerNotes)
	if err != nil {
		return nil, translate(err)
	}
	s.recorder.StatusChanged(status)

	s.logger.Info("application status updated",
		zap.Int64("application_id", id),
		zap.String("status", string(status)),
	)

	return app, nil
}

// Profile returns the character profile archived at submission.
func (s *Service) Profile(ctx context.Context, id int64) (*models.CharacterProfile, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.archive == nil {
		return nil, ErrProfileNotFound
	}

	profile, err := s.archive.FindProfile(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("applications: find profile: %w", err)
	}
	return profile, nil
}

// Summary computes the dashboard over every application.
func (s *Service) Summary(ctx context.Context) (review.Summary, error) {
	apps, err := s.store.ListApplications(ctx)
	if err != nil {
		return review.Summary{}, fmt.Errorf("applications: summary: %w", err)
	}
	return review.Summarize(apps), nil
}

// Character performs a live lookup without storing anything.
func (s *Service) Character(ctx context.Context, name, realm string) (*models.CharacterProfile, error) {
	if s.lookup == nil {
		return nil, characters.ErrCharacterNotFound
	}
	return s.lookup.Lookup(ctx, name, realm)
}

func translate(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrApplicationNotFound
	}
	return fmt.Errorf("applications: %w", err)
}

func trimFields(f models.ApplicationFields) models.ApplicationFields {
	for _, field := range []*string{
		&f.Battletag, &f.CharName, &f.Realm, &f.CharClass, &f.Spec, &f.DesiredRole,
		&f.Experience, &f.UI, &f.Addons, &f.Availability, &f.Reason, &f.Referral,
	} {
		*field = strings.TrimSpace(*field)
	}
	return f
}

type nopRecorder struct{}

func (nopRecorder) ApplicationSubmitted()                  {}
func (nopRecorder) StatusChanged(models.ApplicationStatus) {}
func (nopRecorder) CharacterLookup(string)                 {}
