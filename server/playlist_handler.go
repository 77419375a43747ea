package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"moodmusic/model"
)

// CreatePlaylistRequest represents the create-playlist body
type CreatePlaylistRequest struct {
	Name        string `json:"name"`
	IsFavorites bool   `json:"isFavorites"`
}

// RenamePlaylistRequest represents the rename body
type RenamePlaylistRequest struct {
	Name string `json:"name" validate:"required"`
}

// SongRequest is a song to add to a playlist.
type SongRequest struct {
	VideoID string `json:"videoId" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Artist  string `json:"artist"`
	Image   string `json:"image"`
}

func (s SongRequest) song() model.Song {
	return model.Song{VideoID: s.VideoID, Title: s.Title, Artist: s.Artist, Image: s.Image}
}

// GetPlaylistsHandler lists the user's playlists, newest first.
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	playlists, err := h.playlists.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

// CreatePlaylistHandler creates an empty playlist.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req CreatePlaylistRequest
	if !h.decode(w, r, &req) {
		return
	}

	userID, _ := GetUserIDFromContext(r.Context())
	p, err := h.playlists.Create(r.Context(), userID, req.Name, req.IsFavorites)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RenamePlaylistHandler renames a playlist owned by the user.
func (h *APIHandler) RenamePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req RenamePlaylistRequest
	if !h.decode(w, r, &req) {
		return
	}

	userID, _ := GetUserIDFromContext(r.Context())
	p, err := h.playlists.Rename(r.Context(), mux.Vars(r)["id"], req.Name, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlaylistHandler deletes a playlist owned by the user.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	if err := h.playlists.Delete(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		writeError(w, r, err)
		return
	}
	writeMsg(w, http.StatusOK, "Playlist removed")
}

// AddSongHandler prepends a song and returns the playlist's songs.
func (h *APIHandler) AddSongHandler(w http.ResponseWriter, r *http.Request) {
	var req SongRequest
	if !h.decode(w, r, &req) {
		return
	}

	userID, _ := GetUserIDFromContext(r.Context())
	songs, err := h.playlists.AddTrack(r.Context(), mux.Vars(r)["id"], req.song(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// RemoveSongHandler removes a song and returns the playlist's songs.
func (h *APIHandler) RemoveSongHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, _ := GetUserIDFromContext(r.Context())
	songs, err := h.playlists.RemoveTrack(r.Context(), vars["id"], vars["videoId"], userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// GetFavoritesHandler returns the Favorites playlist, creating it if needed.
func (h *APIHandler) GetFavoritesHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	p, err := h.playlists.Favorites(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// LikeSongHandler adds a song to Favorites.
func (h *APIHandler) LikeSongHandler(w http.ResponseWriter, r *http.Request) {
	var req SongRequest
	if !h.decode(w, r, &req) {
		return
	}

	userID, _ := GetUserIDFromContext(r.Context())
	songs, err := h.playlists.Like(r.Context(), userID, req.song())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// UnlikeSongHandler removes a song from Favorites.
func (h *APIHandler) UnlikeSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	songs, err := h.playlists.Unlike(r.Context(), userID, mux.Vars(r)["videoId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}
