package archive

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Reader reads archived turns and session totals
type Reader interface {
	ListTurns(ctx context.Context, roomID string) ([]TurnRecord, error)
	SessionStats(ctx context.Context, sessionID uuid.UUID) (SessionStats, error)
}

// Handler serves the archive over plain HTTP
type Handler struct {
	archive Reader
}

func NewHandler(archive Reader) *Handler {
	return &Handler{archive: archive}
}

// RegisterRoutes registers archive routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /rooms/{roomID}/turns", h.HandleRoomTurns)
	mux.HandleFunc("GET /sessions/{sessionID}/stats", h.HandleSessionStats)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

// HandleRoomTurns returns every archived turn of one room
func (h *Handler) HandleRoomTurns(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	if roomID == "" {
		http.Error(w, "room id is required", http.StatusBadRequest)
		return
	}

	turns, err := h.archive.ListTurns(r.Context(), roomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to list turns")
		http.Error(w, "failed to list turns", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"roomId": roomID,
		"turns":  turns,
	}); err != nil {
		log.Error().Err(err).Msg("failed to encode turns")
	}
}

// HandleSessionStats returns the totals of one room session
func (h *Handler) HandleSessionStats(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.PathValue("sessionID"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	stats, err := h.archive.SessionStats(r.Context(), sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to get session stats")
		http.Error(w, "failed to get session stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to encode session stats")
	}
}
