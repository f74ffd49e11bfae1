package characters

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/wuwenbin0122/guild-recruit/internal/models"
	"github.com/wuwenbin0122/guild-recruit/internal/review"
)

var equipmentSlots = []string{
	"Head", "Neck", "Shoulders", "Back", "Chest", "Wrist", "Hands", "Waist",
	"Legs", "Feet", "Ring 1", "Ring 2", "Trinket 1", "Trinket 2", "Main Hand", "Off Hand",
}

var stubClasses = []string{
	"Warrior", "Paladin", "Hunter", "Rogue", "Priest",
	"Shaman", "Mage", "Warlock", "Druid", "Death Knight",
}

var stubRaid = models.RaidTier{
	ID:   1,
	Name: "Blackrock Foundry",
	Bosses: []models.Boss{
		{ID: 101, Name: "Gruul"},
		{ID: 102, Name: "Oregorger"},
		{ID: 103, Name: "Blast Furnace"},
		{ID: 104, Name: "Hans'gar & Franzok"},
		{ID: 105, Name: "Flamebender Ka'graz"},
		{ID: 106, Name: "Kromog"},
		{ID: 107, Name: "Beastlord Darmac"},
		{ID: 108, Name: "Operator Thogar"},
		{ID: 109, Name: "Iron Maidens"},
		{ID: 110, Name: "Blackhand"},
	},
}

// Stub fabricates profiles for development. Output depends only on the
// character name and realm so repeated lookups agree. Names listed in
// Missing report ErrCharacterNotFound.
type Stub struct {
	Missing map[string]bool
}

func NewStub() *Stub {
	return &Stub{Missing: map[string]bool{}}
}

func (s *Stub) Lookup(ctx context.Context, name, realm string) (*models.CharacterProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(realm) == "" || s.Missing[slug(name)] {
		return nil, fmt.Errorf("%w: %s-%s", ErrCharacterNotFound, name, realm)
	}

	h := fnv.New64a()
	h.Write([]byte(slug(realm) + "/" + slug(name)))
	seed := h.Sum64()

	equipment := make([]models.Equipment, len(equipmentSlots))
	var total float64
	for i, slot := range equipmentSlots {
		ilvl := 400 + float64((seed>>(i*2))%21)
		quality := "Epic"
		if i%5 == 0 {
			quality = "Legendary"
		}
		equipment[i] = models.Equipment{
			ID:        int64(100 + i),
			Name:      fmt.Sprintf("Epic Item %d", i+1),
			Quality:   quality,
			ItemLevel: ilvl,
			Slot:      slot,
		}
		total += ilvl
	}

	killed := int(seed % uint64(len(stubRaid.Bosses)+1))
	raid := stubRaid
	raid.Bosses = make([]models.Boss, len(stubRaid.Bosses))
	for i, boss := range stubRaid.Bosses {
		boss.Killed = i < killed
		raid.Bosses[i] = boss
	}
	tiers := []models.RaidTier{raid}

	faction := "Alliance"
	if seed%2 == 1 {
		faction = "Horde"
	}

	return &models.CharacterProfile{
		Name:            name,
		Realm:           realm,
		Class:           stubClasses[(seed>>40)%uint64(len(stubClasses))],
		Level:           60,
		ItemLevel:       total / float64(len(equipment)),
		Faction:         faction,
		Equipment:       equipment,
		RaidProgress:    tiers,
		ProgressPercent: review.ProgressPercent(tiers),
	}, nil
}
