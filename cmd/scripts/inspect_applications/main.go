package main

import (
	"context"
	"fmt"

	"github.com/wuwenbin0122/guild-recruit/config"
	"github.com/wuwenbin0122/guild-recruit/internal/db"
	"github.com/wuwenbin0122/guild-recruit/internal/review"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	pg, err := db.NewPostgres(ctx, cfg.Postgres())
	if err != nil {
		panic(err)
	}
	defer pg.Close()

	apps, err := pg.ListApplications(ctx)
	if err != nil {
		panic(err)
	}

	summary := review.Summarize(apps)
	fmt.Printf("applications: %d (new %d, in progress %d, accepted %d, rejected %d)\n",
		summary.Total, summary.New, summary.InProgress, summary.Accepted, summary.Rejected)
	fmt.Printf("average ilvl: %.1f  average score: %.1f\n", summary.AverageIlvl, summary.AverageScore)

	fmt.Println("top classes:")
	for _, class := range summary.TopClasses {
		fmt.Printf("- %s (%d)\n", class.ClassName, class.Count)
	}

	fmt.Println("latest:")
	latest := review.Apply(apps, review.Criteria{SortBy: review.SortByCreatedAt, Order: review.Descending})
	for i, app := range latest {
		if i == 10 {
			break
		}
		fmt.Printf("- #%d %s-%s %s %s ilvl %.0f score %.1f [%s]\n",
			app.ID, app.CharName, app.Realm, app.CharClass, app.DesiredRole, app.ItemLevel, app.Score, app.Status)
	}
}
