package client

import (
	"context"
	"net/http"
	"net/url"

	"moodmusic/model"
)

// Playlists lists the user's playlists, newest first.
func (c *Client) Playlists(ctx context.Context) ([]model.Playlist, error) {
	var playlists []model.Playlist
	if err := c.do(ctx, http.MethodGet, "/playlists", true, nil, &playlists, nil); err != nil {
		return nil, err
	}
	return playlists, nil
}

// CreatePlaylist creates an empty playlist.
func (c *Client) CreatePlaylist(ctx context.Context, name string) (*model.Playlist, error) {
	var p model.Playlist
	if err := c.do(ctx, http.MethodPost, "/playlists", true, map[string]string{"name": name}, &p, nil); err != nil {
		return nil, err
	}
	return &p, nil
}

// RenamePlaylist renames a playlist.
func (c *Client) RenamePlaylist(ctx context.Context, id, name string) (*model.Playlist, error) {
	var p model.Playlist
	if err := c.do(ctx, http.MethodPut, "/playlists/"+url.PathEscape(id), true, map[string]string{"name": name}, &p, nil); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePlaylist deletes a playlist.
func (c *Client) DeletePlaylist(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/playlists/"+url.PathEscape(id), true, nil, nil, nil)
}

// AddSong prepends track to the playlist and returns its songs.
func (c *Client) AddSong(ctx context.Context, playlistID string, track model.Track) ([]model.Song, error) {
	var songs []model.Song
	path := "/playlists/" + url.PathEscape(playlistID) + "/songs"
	if err := c.do(ctx, http.MethodPost, path, true, model.SongFromTrack(track), &songs, nil); err != nil {
		return nil, err
	}
	return songs, nil
}

// RemoveSong removes videoID from the playlist and returns its songs.
func (c *Client) RemoveSong(ctx context.Context, playlistID, videoID string) ([]model.Song, error) {
	var songs []model.Song
	path := "/playlists/" + url.PathEscape(playlistID) + "/songs/" + url.PathEscape(videoID)
	if err := c.do(ctx, http.MethodDelete, path, true, nil, &songs, nil); err != nil {
		return nil, err
	}
	return songs, nil
}

// Favorites returns the Favorites playlist.
func (c *Client) Favorites(ctx context.Context) (*model.Playlist, error) {
	var p model.Playlist
	if err := c.do(ctx, http.MethodGet, "/playlists/favorites", true, nil, &p, nil); err != nil {
		return nil, err
	}
	return &p, nil
}

// IsLiked reports whether videoID is in Favorites.
func (c *Client) IsLiked(ctx context.Context, videoID string) (bool, error) {
	fav, err := c.Favorites(ctx)
	if err != nil {
		return false, err
	}
	return fav.Songs.Contains(videoID), nil
}

// Like adds track to Favorites.
func (c *Client) Like(ctx context.Context, track model.Track) error {
	return c.do(ctx, http.MethodPost, "/playlists/favorites/songs", true, model.SongFromTrack(track), nil, nil)
}

// Unlike removes videoID from Favorites.
func (c *Client) Unlike(ctx context.Context, videoID string) error {
	return c.do(ctx, http.MethodDelete, "/playlists/favorites/songs/"+url.PathEscape(videoID), true, nil, nil, nil)
}
