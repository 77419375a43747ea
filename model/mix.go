package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MixInputs records the selections a recommendation was generated from.
type MixInputs struct {
	Mood     string `json:"mood"`
	Language string `json:"language"`
	Genre    string `json:"genre"`
	Mode     string `json:"mode"`
}

// Scan implements sql.Scanner.
func (m *MixInputs) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// Value implements driver.Valuer.
func (m MixInputs) Value() (driver.Value, error) {
	return valueJSON(m, false)
}

// SavedMix is a generated recommendation the user chose to keep. It is
// separate from the editable playlists.
type SavedMix struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user" gorm:"size:36;not null;index"`
	Name      string    `json:"name" gorm:"size:200"`
	Inputs    MixInputs `json:"inputs" gorm:"type:json"`
	Tracks    TrackList `json:"tracks" gorm:"type:json"`
	CreatedAt time.Time `json:"createdAt" gorm:"precision:6;index"`
}

// TableName pins the table name.
func (SavedMix) TableName() string {
	return "saved_mixes"
}

// BeforeCreate assigns a UUID.
func (m *SavedMix) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Tracks == nil {
		m.Tracks = TrackList{}
	}
	return nil
}

// AllModels lists every model managed by migrations.
func AllModels() []interface{} {
	return []interface{}{&User{}, &Playlist{}, &SavedMix{}}
}
