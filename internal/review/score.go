package review

import "github.com/wuwenbin0122/guild-recruit/internal/models"

// ReferenceItemLevel is the item level that earns the full gear share of the score.
const ReferenceItemLevel = 420.0

const (
	gearWeight     = 0.6
	progressWeight = 0.4
)

// Score weights item level against ReferenceItemLevel (60%) and raid
// progress percentage (40%).
func Score(itemLevel, progressPercent float64) float64 {
	return (itemLevel/ReferenceItemLevel*gearWeight)*100 + progressPercent*progressWeight
}

// ProgressPercent returns the share of bosses killed across every tier, 0..100.
func ProgressPercent(tiers []models.RaidTier) float64 {
	var total, killed int
	for _, tier := range tiers {
		for _, boss := range tier.Bosses {
			total++
			if boss.Killed {
				killed++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * float64(killed) / float64(total)
}

// Derive fills progress and score when the record does not carry them yet.
func Derive(app *models.Application) {
	if app.ProgressPercent == 0 && len(app.RaidProgress) > 0 {
		app.ProgressPercent = ProgressPercent(app.RaidProgress)
	}
	if app.Score == 0 {
		app.Score = Score(app.ItemLevel, app.ProgressPercent)
	}
}
