// Package review filters, orders and summarises application snapshots for
// officers. Everything here is pure: inputs are never mutated.
package review

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

// SortField names a sortable application attribute.
type SortField string

const (
	SortByName      SortField = "charName"
	SortByItemLevel SortField = "ilvl"
	SortByProgress  SortField = "progressPercent"
	SortByScore     SortField = "score"
	SortByCreatedAt SortField = "createdAt"
)

// Order is a sort direction.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// Criteria describes an officer's view over the application list. Zero
// values disable the corresponding filter.
type Criteria struct {
	Search      string
	Class       string
	DesiredRole string
	Status      models.ApplicationStatus
	MinIlvl     float64

	SortBy SortField
	Order  Order
}

// ParseSortField validates a client supplied sort key. Empty input yields def.
func ParseSortField(raw string, def SortField) (SortField, error) {
	if raw == "" {
		return def, nil
	}
	switch f := SortField(raw); f {
	case SortByName, SortByItemLevel, SortByProgress, SortByScore, SortByCreatedAt:
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", raw)
}

// ParseOrder validates a client supplied direction. Empty input yields def.
func ParseOrder(raw string, def Order) (Order, error) {
	switch o := Order(strings.ToLower(raw)); o {
	case "":
		return def, nil
	case Ascending, Descending:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort order %q", raw)
}

// Matches reports whether app satisfies every set filter in c.
func (c Criteria) Matches(app models.Application) bool {
	if c.Search != "" {
		term := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(app.CharName), term) &&
			!strings.Contains(strings.ToLower(app.Battletag), term) &&
			!strings.Contains(strings.ToLower(app.Realm), term) {
			return false
		}
	}
	if c.Class != "" && app.CharClass != c.Class {
		return false
	}
	if c.DesiredRole != "" && app.DesiredRole != c.DesiredRole {
		return false
	}
	if c.Status != "" && app.Status != c.Status {
		return false
	}
	if c.MinIlvl > 0 && app.ItemLevel < c.MinIlvl {
		return false
	}
	return true
}

// Filter returns the applications matching c, preserving input order. The
// result is never nil so an empty match serialises as [].
func Filter(apps []models.Application, c Criteria) []models.Application {
	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if c.Matches(app) {
			out = append(out, app)
		}
	}
	return out
}

// Sort orders apps in place by field. Equal keys keep their relative order
// in both directions.
func Sort(apps []models.Application, field SortField, order Order) {
	compare := comparator(field)
	if compare == nil {
		return
	}
	if order == Descending {
		slices.SortStableFunc(apps, func(a, b models.Application) int { return compare(b, a) })
		return
	}
	slices.SortStableFunc(apps, compare)
}

// Apply filters a copy of apps and sorts it according to c.
func Apply(apps []models.Application, c Criteria) []models.Application {
	out := Filter(apps, c)
	for i := range out {
		Derive(&out[i])
	}
	Sort(out, c.SortBy, c.Order)
	return out
}

func comparator(field SortField) func(a, b models.Application) int {
	switch field {
	case SortByName:
		return func(a, b models.Application) int {
			return strings.Compare(strings.ToLower(a.CharName), strings.ToLower(b.CharName))
		}
	case SortByItemLevel:
		return func(a, b models.Application) int { return cmp.Compare(a.ItemLevel, b.ItemLevel) }
	case SortByProgress:
		return func(a, b models.Application) int { return cmp.Compare(a.ProgressPercent, b.ProgressPercent) }
	case SortByScore:
		return func(a, b models.Application) int { return cmp.Compare(a.Score, b.Score) }
	case SortByCreatedAt:
		return func(a, b models.Application) int { return a.CreatedAt.Compare(b.CreatedAt) }
	}
	return nil
}
