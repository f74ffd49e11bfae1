package models

import (
	"fmt"
	"time"
)

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusNew       ApplicationStatus = "New"
	StatusContacted ApplicationStatus = "Contacted"
	StatusTrial     ApplicationStatus = "Trial"
	StatusRejected  ApplicationStatus = "Rejected"
	StatusAccepted  ApplicationStatus = "Accepted"
)

// Statuses lists every review state in workflow order.
var Statuses = []ApplicationStatus{StatusNew, StatusContacted, StatusTrial, StatusRejected, StatusAccepted}

// ParseStatus converts raw input into a known status. Matching is exact.
func ParseStatus(raw string) (ApplicationStatus, error) {
	for _, s := range Statuses {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", raw)
}

// ApplicationFields holds the candidate supplied part of an application.
type ApplicationFields struct {
	Battletag    string `json:"battletag" validate:"required,battletag"`
	CharName     string `json:"charName" validate:"required,min=2"`
	Realm        string `json:"realm" validate:"required"`
	CharClass    string `json:"charClass" validate:"required,charclass"`
	Spec         string `json:"spec" validate:"required,classspec"`
	DesiredRole  string `json:"desiredRole" validate:"required,raidrole"`
	Experience   string `json:"experience,omitempty"`
	UI           string `json:"ui,omitempty"`
	Addons       string `json:"addons,omitempty"`
	Availability string `json:"availability" validate:"required"`
	Reason       string `json:"reason" validate:"required,min=10"`
	Referral     string `json:"referral,omitempty"`
}

// Application is a submitted recruitment application and its review state.
type Application struct {
	ID     int64  `json:"id"`
	UserID string `json:"userId"`
	ApplicationFields

	ItemLevel       float64    `json:"ilvl"`
	RaidProgress    []RaidTier `json:"raidProgress"`
	ProgressPercent float64    `json:"progressPercent"`
	Score           float64    `json:"score"`

	Status       ApplicationStatus `json:"status"`
	OfficerNotes *string           `json:"officerNotes,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// ForCandidate returns a copy safe to show to the owning candidate.
func (a Application) ForCandidate() Application {
	a.OfficerNotes = nil
	return a
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (a Application) Clone() Application {
	if a.OfficerNotes != nil {
		notes := *a.OfficerNotes
		a.OfficerNotes = &notes
	}
	if a.RaidProgress != nil {
		tiers := make([]RaidTier, len(a.RaidProgress))
		for i, tier := range a.RaidProgress {
			tiers[i] = tier
			tiers[i].Bosses = append([]Boss(nil), tier.Bosses...)
		}
		a.RaidProgress = tiers
	}
	return a
}
