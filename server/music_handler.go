package server

import (
	"net/http"
	"strconv"
	"strings"

	"moodmusic/core/mood"
	"moodmusic/logger"
	"moodmusic/model"
)

const (
	degradedHeader   = "X-Catalog-Degraded"
	defaultSearchMax = 10
	maxSearchMax     = 50
)

// SaveMixRequest represents a recommendation the user keeps.
type SaveMixRequest struct {
	Name   string          `json:"name" validate:"required"`
	Inputs model.MixInputs `json:"inputs"`
	Tracks []model.Track   `json:"tracks"`
}

// RecommendHandler returns tracks for a mood selection. Failed catalog
// batches are reported in the X-Catalog-Degraded header.
func (h *APIHandler) RecommendHandler(w http.ResponseWriter, r *http.Request) {
	var req mood.Request
	if !h.decode(w, r, &req) {
		return
	}

	logger.Info("Generating recommendation",
		logger.String("mode", req.Mode),
		logger.String("mood", req.Mood),
		logger.String("language", req.Language),
		logger.String("genre", req.Genre))

	res := h.engine.Recommend(r.Context(), req)
	if res.FailedBatches > 0 {
		w.Header().Set(degradedHeader, strconv.Itoa(res.FailedBatches))
	}
	writeJSON(w, http.StatusOK, res.Tracks)
}

// SearchHandler runs a free-text catalog search.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeMsg(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := defaultSearchMax
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeMsg(w, http.StatusBadRequest, "max must be a positive integer")
			return
		}
		if n > maxSearchMax {
			n = maxSearchMax
		}
		limit = n
	}

	writeJSON(w, http.StatusOK, h.catalog.Search(r.Context(), q, limit))
}

// SaveMixHandler stores a generated mix for the user.
func (h *APIHandler) SaveMixHandler(w http.ResponseWriter, r *http.Request) {
	var req SaveMixRequest
	if !h.decode(w, r, &req) {
		return
	}

	userID, _ := GetUserIDFromContext(r.Context())
	mix := &model.SavedMix{
		UserID: userID,
		Name:   req.Name,
		Inputs: req.Inputs,
		Tracks: model.TrackList(req.Tracks),
	}
	if err := h.mixes.Create(r.Context(), mix); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mix)
}

// HistoryHandler lists the user's saved mixes, newest first.
func (h *APIHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := GetUserIDFromContext(r.Context())
	mixes, err := h.mixes.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if mixes == nil {
		mixes = []*model.SavedMix{}
	}
	writeJSON(w, http.StatusOK, mixes)
}
