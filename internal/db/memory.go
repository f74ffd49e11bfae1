package db

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

// MemoryStore keeps users and applications in process memory. It backs tests
// and the "memory" storage driver.
type MemoryStore struct {
	mu           sync.RWMutex
	usersByName  map[string]*models.User
	applications []*models.Application
	nextID       int64
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usersByName: make(map[string]*models.User),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByName[user.Username]; exists {
		return ErrDuplicate
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := m.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	m.usersByName[user.Username] = &stored
	return nil
}

func (m *MemoryStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.usersByName[username]
	if !ok {
		return nil, ErrNotFound
	}
	found := *user
	return &found, nil
}

// SetUserRole changes an account's role.
func (m *MemoryStore) SetUserRole(ctx context.Context, username string, role models.UserRole) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.usersByName[username]
	if !ok {
		return ErrNotFound
	}
	user.Role = role
	user.UpdatedAt = m.now()
	return nil
}

func (m *MemoryStore) CreateApplication(ctx context.Context, app *models.Application) error {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := m.now()
	app.ID = m.nextID
	app.Status = models.StatusNew
	app.CreatedAt = now
	app.UpdatedAt = now

	stored := app.Clone()
	m.applications = append(m.applications, &stored)
	return nil
}

func (m *MemoryStore) GetApplication(ctx context.Context, id int64) (*models.Application, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	app := m.findLocked(id)
	if app == nil {
		return nil, ErrNotFound
	}
	found := app.Clone()
	return &found, nil
}

func (m *MemoryStore) ListApplications(ctx context.Context) ([]models.Application, error) {
	return m.list(ctx, func(*models.Application) bool { return true })
}

func (m *MemoryStore) ListApplicationsByUser(ctx context.Context, userID string) ([]models.Application, error) {
	return m.list(ctx, func(app *models.Application) bool { return app.UserID == userID })
}

func (m *MemoryStore) UpdateApplicationStatus(ctx context.Context, id int64, status models.ApplicationStatus, officerNotes *string) (*models.Application, error) {
	_ = ctx

	m.mu.Lock()
	defer m.mu.Unlock()

	app := m.findLocked(id)
	if app == nil {
		return nil, ErrNotFound
	}

	app.Status = status
	if officerNotes != nil {
		notes := *officerNotes
		app.OfficerNotes = &notes
	}
	app.UpdatedAt = m.now()

	updated := app.Clone()
	return &updated, nil
}

func (m *MemoryStore) list(ctx context.Context, keep func(*models.Application) bool) ([]models.Application, error) {
	_ = ctx

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Application, 0, len(m.applications))
	for _, app := range m.applications {
		if keep(app) {
			out = append(out, app.Clone())
		}
	}
	return out, nil
}

func (m *MemoryStore) findLocked(id int64) *models.Application {
	for _, app := range m.applications {
		if app.ID == id {
			return app
		}
	}
	return nil
}

// MemoryArchive keeps character profile snapshots in process memory.
type MemoryArchive struct {
	mu       sync.RWMutex
	profiles map[int64]models.CharacterProfile
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{profiles: make(map[int64]models.CharacterProfile)}
}

func (a *MemoryArchive) SaveProfile(ctx context.Context, applicationID int64, profile models.CharacterProfile) error {
	_ = ctx

	a.mu.Lock()
	defer a.mu.Unlock()
	a.profiles[applicationID] = profile
	return nil
}

func (a *MemoryArchive) FindProfile(ctx context.Context, applicationID int64) (*models.CharacterProfile, error) {
	_ = ctx

	a.mu.RLock()
	defer a.mu.RUnlock()
	profile, ok := a.profiles[applicationID]
	if !ok {
		return nil, ErrNotFound
	}
	return &profile, nil
}
