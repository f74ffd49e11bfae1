// Package characters provides character profile lookups against the game
// data provider. Callers depend on Lookup; which implementation backs it is
// decided at wiring time.
package characters

import (
	"context"
	"errors"
	"strings"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

var ErrCharacterNotFound = errors.New("characters: character not found")

// Lookup resolves a character to its current profile.
type Lookup interface {
	Lookup(ctx context.Context, name, realm string) (*models.CharacterProfile, error)
}

// slug turns a display name into the lowercase dash-separated form used in
// upstream URLs and cache keys.
func slug(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, "'", "")
	return strings.Join(strings.Fields(value), "-")
}
