package models

// Weekdays in schedule order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// RaidNight is one recurring entry on the guild raid calendar.
type RaidNight struct {
	ID       int64  `json:"id" gorm:"primaryKey"`
	Day      string `json:"day" gorm:"not null"`
	TimeSlot string `json:"time" gorm:"column:time_slot;not null"`
	RaidType string `json:"type" gorm:"column:raid_type;not null"`
	Note     string `json:"note"`
}

func (RaidNight) TableName() string {
	return "raid_nights"
}
