package models

import "github.com/lib/pq"

// Vacancy priorities, most urgent first.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Vacancy is an open raid spot advertised to prospective applicants.
type Vacancy struct {
	ID       int64          `json:"id" gorm:"primaryKey"`
	Role     string         `json:"role" gorm:"not null"`
	Classes  pq.StringArray `json:"classes" gorm:"type:text[]"`
	Priority string         `json:"priority" gorm:"not null;default:Medium"`
	Notes    string         `json:"notes"`
}

func (Vacancy) TableName() string {
	return "vacancies"
}
