package db

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/wuwenbin0122/guild-recruit/db/models"
)

const weekdayOrder = `CASE day WHEN 'Monday' THEN 0 WHEN 'Tuesday' THEN 1 WHEN 'Wednesday' THEN 2 ` +
	`WHEN 'Thursday' THEN 3 WHEN 'Friday' THEN 4 WHEN 'Saturday' THEN 5 ELSE 6 END`

// ScheduleRepository reads and writes the raid calendar through gorm.
type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns every raid night in weekday order.
func (r *ScheduleRepository) List(ctx context.Context) ([]models.RaidNight, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("schedule repository is not configured")
	}

	nights := make([]models.RaidNight, 0)
	err := r.db.WithContext(ctx).
		Order(weekdayOrder + ", id ASC").
		Find(&nights).Error
	if err != nil {
		return nil, fmt.Errorf("query raid nights: %w", err)
	}
	return nights, nil
}

// Replace swaps the whole calendar in one transaction.
func (r *ScheduleRepository) Replace(ctx context.Context, nights []models.RaidNight) error {
	for _, night := range nights {
		if !ValidWeekday(night.Day) {
			return fmt.Errorf("raid night has unknown day %q", night.Day)
		}
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM raid_nights").Error; err != nil {
			return fmt.Errorf("clear raid nights: %w", err)
		}
		if len(nights) == 0 {
			return nil
		}
		if err := tx.Create(&nights).Error; err != nil {
			return fmt.Errorf("insert raid nights: %w", err)
		}
		return nil
	})
}

func ValidWeekday(day string) bool {
	return slices.Contains(models.Weekdays, day)
}
