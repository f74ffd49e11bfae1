package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/wuwenbin0122/guild-recruit/config"
	"github.com/wuwenbin0122/guild-recruit/internal/auth"
	"github.com/wuwenbin0122/guild-recruit/internal/db"
	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

// Creates the officer account if needed, then grants it the officer role.
// Passing "admin" as OFFICER_ROLE grants admin instead.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.OfficerPassword == "" {
		log.Fatal("OFFICER_PASSWORD is required")
	}

	ctx := context.Background()
	pg, err := db.NewPostgres(ctx, cfg.Postgres())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pg.Close()

	// The token is discarded; the service is only used for its hashing and
	// username rules.
	accounts, err := auth.NewService("seed-officer", time.Minute, pg)
	if err != nil {
		log.Fatalf("init auth: %v", err)
	}

	_, err = accounts.Register(ctx, auth.RegisterInput{Username: cfg.OfficerUsername, Password: cfg.OfficerPassword})
	switch {
	case err == nil:
		log.Printf("created account %s", cfg.OfficerUsername)
	case errors.Is(err, auth.ErrUserExists):
		log.Printf("account %s already exists, keeping its password", cfg.OfficerUsername)
	default:
		log.Fatalf("register %s: %v", cfg.OfficerUsername, err)
	}

	role := models.RoleOfficer
	if cfg.OfficerRole == string(models.RoleAdmin) {
		role = models.RoleAdmin
	}

	if err := pg.SetUserRole(ctx, cfg.OfficerUsername, role); err != nil {
		log.Fatalf("grant %s to %s: %v", role, cfg.OfficerUsername, err)
	}

	log.Printf("%s is now %s", cfg.OfficerUsername, role)
}
