package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter mounts every route under /api. CORS wraps the router so
// preflight requests are answered even for routes without an OPTIONS
// method.
func NewRouter(h *APIHandler, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, loggingMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", h.HealthzHandler).Methods(http.MethodGet)

	// auth
	api.HandleFunc("/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.LoginHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/google", h.GoogleLoginHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet)
	api.HandleFunc("/auth/updatepassword", h.AuthMiddleware(h.UpdatePasswordHandler)).Methods(http.MethodPut)
	api.HandleFunc("/auth/forgotpassword", h.ForgotPasswordHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/resetpassword/{resetToken}", h.ResetPasswordHandler).Methods(http.MethodPut)

	// music
	api.HandleFunc("/music/recommend", h.RecommendHandler).Methods(http.MethodPost)
	api.HandleFunc("/music/search", h.SearchHandler).Methods(http.MethodGet)
	api.HandleFunc("/music/save", h.AuthMiddleware(h.SaveMixHandler)).Methods(http.MethodPost)
	api.HandleFunc("/music/history", h.AuthMiddleware(h.HistoryHandler)).Methods(http.MethodGet)

	// playlists; favorites routes are registered before {id}
	api.HandleFunc("/playlists/favorites", h.AuthMiddleware(h.GetFavoritesHandler)).Methods(http.MethodGet)
	api.HandleFunc("/playlists/favorites/songs", h.AuthMiddleware(h.LikeSongHandler)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/favorites/songs/{videoId}", h.AuthMiddleware(h.UnlikeSongHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/playlists", h.AuthMiddleware(h.GetPlaylistsHandler)).Methods(http.MethodGet)
	api.HandleFunc("/playlists", h.AuthMiddleware(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}", h.AuthMiddleware(h.RenamePlaylistHandler)).Methods(http.MethodPut)
	api.HandleFunc("/playlists/{id}", h.AuthMiddleware(h.DeletePlaylistHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/songs", h.AuthMiddleware(h.AddSongHandler)).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/songs/{videoId}", h.AuthMiddleware(h.RemoveSongHandler)).Methods(http.MethodDelete)

	return corsMiddleware(allowedOrigins)(router)
}
