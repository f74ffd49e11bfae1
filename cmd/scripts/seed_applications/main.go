package main

import (
	"context"
	"errors"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/wuwenbin0122/guild-recruit/config"
	"github.com/wuwenbin0122/guild-recruit/internal/applications"
	"github.com/wuwenbin0122/guild-recruit/internal/auth"
	"github.com/wuwenbin0122/guild-recruit/internal/characters"
	"github.com/wuwenbin0122/guild-recruit/internal/db"
	"github.com/wuwenbin0122/guild-recruit/internal/models"
)

type seedApplicant struct {
	username string
	fields   models.ApplicationFields
	status   models.ApplicationStatus
	notes    string
}

const seedPassword = "candidate123"

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

	opts := []applications.Option{
		applications.WithLookup(characters.NewStub()),
		applications.WithLogger(zap.NewExample()),
	}
	if cfg.MongoURI != "" {
		archive, err := db.NewMongo(ctx, cfg.Mongo())
		if err != nil {
			log.Fatalf("connect mongo: %v", err)
		}
		defer archive.Close(ctx)
		opts = append(opts, applications.WithArchive(archive))
	}

	apps, err := applications.NewService(pg, opts...)
	if err != nil {
		log.Fatalf("init applications: %v", err)
	}
	accounts, err := auth.NewService("seed-applications", time.Minute, pg)
	if err != nil {
		log.Fatalf("init auth: %v", err)
	}

	applicants := []seedApplicant{
		{
			username: "guldan",
			fields: models.ApplicationFields{
				Battletag: "Guldan#1337", CharName: "Guldan", Realm: "Draenor",
				CharClass: "Warlock", Spec: "Destruction", DesiredRole: "Ranged DPS",
				Experience: "Cleared Mythic Blackrock Foundry", UI: "ElvUI", Addons: "DBM, WeakAuras",
				Availability: "Wed/Thu/Sun 20:00-23:00", Reason: "Looking for a stable mythic roster",
				Referral: "Thrall",
			},
			status: models.StatusNew,
		},
		{
			username: "anduin",
			fields: models.ApplicationFields{
				Battletag: "Anduin#2001", CharName: "Anduin", Realm: "Stormrage",
				CharClass: "Priest", Spec: "Holy", DesiredRole: "Healer",
				Availability: "Every raid night", Reason: "My old guild disbanded after the last tier",
			},
			status: models.StatusTrial,
			notes:  "Trial starts next reset",
		},
		{
			username: "varian",
			fields: models.ApplicationFields{
				Battletag: "Varian#4242", CharName: "Varian", Realm: "Stormrage",
				CharClass: "Warrior", Spec: "Protection", DesiredRole: "Tank",
				Availability: "Wed/Thu", Reason: "Want to tank progression content again",
			},
			status: models.StatusContacted,
		},
		{
			username: "valeera",
			fields: models.ApplicationFields{
				Battletag: "Valeera#777", CharName: "Valeera", Realm: "Silvermoon",
				CharClass: "Rogue", Spec: "Subtlety", DesiredRole: "Melee DPS",
				Availability: "Sunday only", Reason: "Friends already raid with you",
			},
			status: models.StatusRejected,
			notes:  "Cannot make two nights a week",
		},
	}

	for _, a := range applicants {
		userID, err := ensureCandidate(ctx, accounts, pg, a.username)
		if err != nil {
			log.Fatalf("account %s: %v", a.username, err)
		}

		app, err := apps.Submit(ctx, userID, a.fields)
		if err != nil {
			log.Fatalf("submit %s: %v", a.fields.CharName, err)
		}

		if a.status != models.StatusNew {
			var notes *string
			if a.notes != "" {
				notes = &a.notes
			}
			if _, err := apps.UpdateStatus(ctx, app.ID, a.status, notes); err != nil {
				log.Fatalf("update %s: %v", a.fields.CharName, err)
			}
		}
	}

	log.Printf("seeded %d applications", len(applicants))
}

func ensureCandidate(ctx context.Context, accounts *auth.Service, pg *db.Postgres, username string) (string, error) {
	result, err := accounts.Register(ctx, auth.RegisterInput{Username: username, Password: seedPassword})
	if err == nil {
		return result.User.ID, nil
	}
	if !errors.Is(err, auth.ErrUserExists) {
		return "", err
	}

	user, err := pg.FindUserByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
