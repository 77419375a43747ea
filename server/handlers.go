package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"moodmusic/core/apperr"
	"moodmusic/core/catalog"
	"moodmusic/core/identity"
	"moodmusic/core/mood"
	"moodmusic/core/playlist"
	"moodmusic/logger"
	"moodmusic/repository"
)

const maxBodyBytes = 1 << 20

// APIHandler serves every /api route.
type APIHandler struct {
	identity  *identity.Service
	playlists *playlist.Service
	mixes     repository.MixRepository
	engine    *mood.Engine
	catalog   *catalog.Adapter
	health    func(ctx context.Context) error
	validate  *validator.Validate
}

// NewAPIHandler creates the handler set. health may be nil.
func NewAPIHandler(
	identitySvc *identity.Service,
	playlists *playlist.Service,
	mixes repository.MixRepository,
	client catalog.Client,
	health func(ctx context.Context) error,
) *APIHandler {
	return &APIHandler{
		identity:  identitySvc,
		playlists: playlists,
		mixes:     mixes,
		engine:    mood.NewEngine(client),
		catalog:   catalog.NewAdapter(client),
		health:    health,
		validate:  newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeMsg(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", logger.ErrorField(err))
	}
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}

// writeError maps an application error to its HTTP response. Internal
// errors are logged and never shown to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindBadRequest, apperr.KindUnauthorized, apperr.KindConflict:
		writeMsg(w, http.StatusBadRequest, apperr.Message(err, ""))
	case apperr.KindForbidden:
		writeMsg(w, http.StatusUnauthorized, apperr.Message(err, "Not authorized"))
	case apperr.KindNotFound:
		writeMsg(w, http.StatusNotFound, apperr.Message(err, "Not found"))
	default:
		logger.Error("Request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("request_id", RequestIDFromContext(r.Context())),
			logger.ErrorField(err))
		writeMsg(w, http.StatusInternalServerError, "Server Error")
	}
}

// HealthzHandler reports whether the service can reach its database.
func (h *APIHandler) HealthzHandler(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			logger.Warn("Health check failed", logger.ErrorField(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
