package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wuwenbin0122/guild-recruit/config"
	"github.com/wuwenbin0122/guild-recruit/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pg, err := db.NewPostgres(ctx, cfg.Postgres())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	// quick verify
	const verify = `SELECT table_name, column_name, data_type FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name IN ('users', 'applications', 'vacancies', 'raid_nights')
		ORDER BY table_name, ordinal_position`
	rows, err := pg.Pool.Query(ctx, verify)
	if err != nil {
		log.Fatalf("verify columns: %v", err)
	}
	defer rows.Close()

	current := ""
	for rows.Next() {
		var table, name, dtype string
		if err := rows.Scan(&table, &name, &dtype); err != nil {
			log.Fatalf("scan: %v", err)
		}
		if table != current {
			fmt.Printf("%s:\n", table)
			current = table
		}
		fmt.Printf("- %s (%s)\n", name, dtype)
	}
	if rows.Err() != nil {
		log.Fatalf("rows: %v", rows.Err())
	}

	fmt.Printf("done at %s\n", time.Now().Format(time.RFC3339))
}
