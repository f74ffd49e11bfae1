package models

// Boss is a single raid encounter.
type Boss struct {
	ID     int64  `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	Killed bool   `json:"killed" bson:"killed"`
}

// RaidTier is a raid instance with its ordered encounters.
type RaidTier struct {
	ID     int64  `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	Bosses []Boss `json:"bosses" bson:"bosses"`
}

// Equipment is one equipped item.
type Equipment struct {
	ID        int64   `json:"id" bson:"id"`
	Name      string  `json:"name" bson:"name"`
	Quality   string  `json:"quality" bson:"quality"`
	ItemLevel float64 `json:"itemLevel" bson:"item_level"`
	Slot      string  `json:"slot" bson:"slot"`
}

// CharacterProfile is what the game data provider reports for a character.
type CharacterProfile struct {
	Name            string      `json:"name" bson:"name"`
	Realm           string      `json:"realm" bson:"realm"`
	Class           string      `json:"class" bson:"class"`
	Level           int         `json:"level" bson:"level"`
	ItemLevel       float64     `json:"ilvl" bson:"ilvl"`
	Faction         string      `json:"faction,omitempty" bson:"faction,omitempty"`
	Equipment       []Equipment `json:"equipment" bson:"equipment"`
	RaidProgress    []RaidTier  `json:"raidProgress" bson:"raid_progress"`
	ProgressPercent float64     `json:"progressPercent" bson:"progress_percent"`

	// Raw is the upstream payload the profile was built from, if any.
	Raw string `json:"rawApiJson,omitempty" bson:"raw,omitempty"`
}
