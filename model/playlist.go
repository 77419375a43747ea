package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// DefaultPlaylistName is used when a playlist is created without a name.
	DefaultPlaylistName = "New Playlist"
	// FavoritesName is the name of the auto-created liked-songs playlist.
	FavoritesName = "Favorites"
)

// Song is one entry of a playlist.
type Song struct {
	VideoID string    `json:"videoId"`
	Title   string    `json:"title"`
	Artist  string    `json:"artist"`
	Image   string    `json:"image"`
	AddedAt time.Time `json:"addedAt"`
}

// SongFromTrack copies a catalog track into a playlist entry.
func SongFromTrack(t Track) Song {
	return Song{
		VideoID: t.VideoID,
		Title:   t.Title,
		Artist:  t.Channel,
		Image:   t.Thumbnail,
	}
}

// SongList is stored as a single JSON column so a playlist and its songs are
// written together.
type SongList []Song

// Scan implements sql.Scanner.
func (s *SongList) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// Value implements driver.Valuer.
func (s SongList) Value() (driver.Value, error) {
	return valueJSON(s, s == nil)
}

// Index returns the position of videoID, or -1.
func (s SongList) Index(videoID string) int {
	for i, song := range s {
		if song.VideoID == videoID {
			return i
		}
	}
	return -1
}

// Contains reports whether videoID is in the list.
func (s SongList) Contains(videoID string) bool {
	return s.Index(videoID) >= 0
}

// Prepend returns a new list with song at the front.
func (s SongList) Prepend(song Song) SongList {
	out := make(SongList, 0, len(s)+1)
	out = append(out, song)
	return append(out, s...)
}

// Without returns a new list with every entry for videoID removed.
func (s SongList) Without(videoID string) SongList {
	out := make(SongList, 0, len(s))
	for _, song := range s {
		if song.VideoID != videoID {
			out = append(out, song)
		}
	}
	return out
}

// Playlist is a named, ordered collection of songs owned by one user.
type Playlist struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	UserID      string    `json:"user" gorm:"size:36;not null;index:idx_playlists_user_created,priority:1"`
	Name        string    `json:"name" gorm:"size:200;not null"`
	IsFavorites bool      `json:"isFavorites" gorm:"not null;default:false"`
	Songs       SongList  `json:"songs" gorm:"type:json"`
	CreatedAt   time.Time `json:"createdAt" gorm:"precision:6;index:idx_playlists_user_created,priority:2"`
}

// TableName pins the table name.
func (Playlist) TableName() string {
	return "playlists"
}

// BeforeCreate assigns a UUID and normalizes the song list.
func (p *Playlist) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Songs == nil {
		p.Songs = SongList{}
	}
	return nil
}

// OwnedBy reports whether userID owns the playlist.
func (p *Playlist) OwnedBy(userID string) bool {
	return p.UserID == userID
}
