package main

import (
	"context"
	"log"

	"github.com/wuwenbin0122/guild-recruit/config"
	"github.com/wuwenbin0122/guild-recruit/db"
	"github.com/wuwenbin0122/guild-recruit/db/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	gormDB, err := db.NewGORM(cfg.DBURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}

	vacancies := []models.Vacancy{
		{
			Role:     "Tank",
			Classes:  []string{"Warrior", "Paladin", "Druid", "Death Knight"},
			Priority: models.PriorityHigh,
			Notes:    "Looking for an experienced Blood DK with a shirt",
		},
		{
			Role:     "Healer",
			Classes:  []string{"Priest", "Shaman", "Paladin"},
			Priority: models.PriorityMedium,
			Notes:    "OCE 2nd Holy Paladin preferred",
		},
		{
			Role:     "Ranged DPS",
			Classes:  []string{"Mage", "Warlock", "Hunter"},
			Priority: models.PriorityLow,
			Notes:    "Bench spot, strong logs required",
		},
		{
			Role:     "Melee DPS",
			Classes:  []string{"Rogue", "Death Knight", "Warrior"},
			Priority: models.PriorityLow,
			Notes:    "Replacing a departing rogue",
		},
	}

	for _, v := range vacancies {
		if !db.ValidPriority(v.Priority) {
			log.Fatalf("vacancy %s has unknown priority %q", v.Role, v.Priority)
		}
	}

	if err := db.NewVacancyRepository(gormDB).Replace(context.Background(), vacancies); err != nil {
		log.Fatalf("seed vacancies: %v", err)
	}

	log.Printf("seeded %d vacancies", len(vacancies))

	nights := []models.RaidNight{
		{Day: "Wednesday", TimeSlot: "7:30 PM - 10:30 PM", RaidType: "Main Raid", Note: "Progression"},
		{Day: "Sunday", TimeSlot: "7:30 PM - 10:30 PM", RaidType: "Main Raid", Note: "Progression"},
		{Day: "Sunday", TimeSlot: "7:30 PM - 10:30 PM", RaidType: "Alt Raid", Note: "Backup raid if full clear"},
	}
	if err := db.NewScheduleRepository(gormDB).Replace(context.Background(), nights); err != nil {
		log.Fatalf("seed raid schedule: %v", err)
	}

	log.Printf("seeded %d raid nights", len(nights))
}
