package main

import (
	"context"
	"log"

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

	if err := pg.ResetSchema(ctx); err != nil {
		log.Fatalf("reset schema: %v", err)
	}

	if cfg.MongoURI != "" {
		archive, err := db.NewMongo(ctx, cfg.Mongo())
		if err != nil {
			log.Fatalf("connect mongo: %v", err)
		}
		defer archive.Close(ctx)

		if err := archive.Profiles.Drop(ctx); err != nil {
			log.Fatalf("drop profile archive: %v", err)
		}
		if err := archive.EnsureCollections(ctx); err != nil {
			log.Fatalf("recreate profile archive: %v", err)
		}
		log.Println("profile archive cleared")
	}

	log.Println("users, applications, vacancies and raid_nights tables recreated")
}
