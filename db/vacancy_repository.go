package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/wuwenbin0122/guild-recruit/db/models"
)

const priorityOrder = `CASE priority WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 ELSE 2 END`

// VacancyFilter narrows a vacancy listing. Empty fields match everything.
type VacancyFilter struct {
	Role  string
	Class string
	Page  int
	Size  int
}

// VacancyRepository reads and writes recruitment vacancies through gorm.
type VacancyRepository struct {
	db *gorm.DB
}

func NewVacancyRepository(db *gorm.DB) *VacancyRepository {
	return &VacancyRepository{db: db}
}

// List returns one page of vacancies, most urgent first, and the total match count.
func (r *VacancyRepository) List(ctx context.Context, filter VacancyFilter) ([]models.Vacancy, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, errors.New("vacancy repository is not configured")
	}

	query := r.db.WithContext(ctx).Model(&models.Vacancy{})

	if role := strings.TrimSpace(filter.Role); role != "" {
		query = query.Where("role = ?", role)
	}
	if class := strings.TrimSpace(filter.Class); class != "" {
		query = query.Where("classes @> ?", pq.StringArray{class})
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count vacancies: %w", err)
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Size <= 0 {
		filter.Size = 20
	}

	vacancies := make([]models.Vacancy, 0, filter.Size)
	err := query.
		Order(priorityOrder + ", id ASC").
		Limit(filter.Size).
		Offset((filter.Page - 1) * filter.Size).
		Find(&vacancies).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query vacancies: %w", err)
	}

	return vacancies, total, nil
}

// Replace swaps the whole vacancy board for the given entries in one transaction.
func (r *VacancyRepository) Replace(ctx context.Context, vacancies []models.Vacancy) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM vacancies").Error; err != nil {
			return fmt.Errorf("clear vacancies: %w", err)
		}
		if len(vacancies) == 0 {
			return nil
		}
		if err := tx.Create(&vacancies).Error; err != nil {
			return fmt.Errorf("insert vacancies: %w", err)
		}
		return nil
	})
}

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p string) bool {
	switch p {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
		return true
	}
	return false
}
