package models

import "time"

// Setting is one entry of the flight bag's durable key-value store. Event
// logs are stored as JSON arrays under "events_<flightId>"; session scalars
// (selected flight, API base override, pilot notes) use their own keys.
type Setting struct {
	Key       string `gorm:"column:setting_key;primaryKey;size:191"`
	Value     string `gorm:"type:mediumtext"`
	UpdatedAt time.Time
}

// TableName pins the table name regardless of naming strategy.
func (Setting) TableName() string {
	return "settings"
}
