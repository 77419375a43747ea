package model

import "database/sql/driver"

// Track is a catalog search result. It is never stored on its own; playlists
// copy it into a Song and saved mixes embed it as-is.
type Track struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Channel   string `json:"channel"`
}

// TrackList is a JSON column of tracks.
type TrackList []Track

// Scan implements sql.Scanner.
func (t *TrackList) Scan(value interface{}) error {
	return scanJSON(value, t)
}

// Value implements driver.Valuer.
func (t TrackList) Value() (driver.Value, error) {
	return valueJSON(t, t == nil)
}
