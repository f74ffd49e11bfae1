package review

import (
	"slices"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

// ClassCount is how many applications name a class.
type ClassCount struct {
	ClassName string `json:"className"`
	Count     int    `json:"count"`
}

// Summary is the officer dashboard overview.
type Summary struct {
	Total        int          `json:"total"`
	New          int          `json:"newApps"`
	InProgress   int          `json:"inProgress"`
	Accepted     int          `json:"accepted"`
	Rejected     int          `json:"rejected"`
	AverageIlvl  float64      `json:"averageIlvl"`
	AverageScore float64      `json:"averageScore"`
	TopClasses   []ClassCount `json:"topClasses"`
}

const topClassLimit = 3

// Summarize computes dashboard statistics over apps. Classes with equal
// counts are ranked by first appearance.
func Summarize(apps []models.Application) Summary {
	summary := Summary{Total: len(apps), TopClasses: []ClassCount{}}

	var ilvlSum, scoreSum float64
	counts := make(map[string]int)
	var order []string

	for _, app := range apps {
		switch app.Status {
		case models.StatusNew:
			summary.New++
		case models.StatusContacted, models.StatusTrial:
			summary.InProgress++
		case models.StatusAccepted:
			summary.Accepted++
		case models.StatusRejected:
			summary.Rejected++
		}

		derived := app
		Derive(&derived)
		ilvlSum += derived.ItemLevel
		scoreSum += derived.Score

		if _, seen := counts[app.CharClass]; !seen {
			order = append(order, app.CharClass)
		}
		counts[app.CharClass]++
	}

	if len(apps) > 0 {
		summary.AverageIlvl = ilvlSum / float64(len(apps))
		summary.AverageScore = scoreSum / float64(len(apps))
	}

	ranked := make([]ClassCount, 0, len(order))
	for _, class := range order {
		ranked = append(ranked, ClassCount{ClassName: class, Count: counts[class]})
	}
	slices.SortStableFunc(ranked, func(a, b ClassCount) int { return b.Count - a.Count })
	if len(ranked) > topClassLimit {
		ranked = ranked[:topClassLimit]
	}
	summary.TopClasses = ranked

	return summary
}
