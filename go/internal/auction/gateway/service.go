package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionwheel/go/internal/auction"
)

// Registry is everything the gateway needs from the room registry
type Registry interface {
	Rooms
	RoomReader
	RoomCount() int
}

// Service wires the websocket transport and the admin RPC to one registry
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	admin             *AdminService
	registry          Registry
}

// NewService creates the gateway. cm must be the Notifier the registry was
// built with.
func NewService(cm *ConnectionManager, registry Registry) *Service {
	dispatcher := NewDispatcher(registry, cm)
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, dispatcher),
		admin:             NewAdminService(registry),
		registry:          registry,
	}
}

// RegisterRoutes registers the WebSocket and admin routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	mux.HandleFunc("/ws/stats", s.HandleStats)

	path, handler := NewAdminServiceHandler(s.admin)
	mux.Handle(path, handler)

	log.Info().Msg("auction gateway routes registered")
}

// Stats reports live connection and room counts
func (s *Service) Stats() map[string]any {
	return map[string]any{
		"service":           "auction_gateway",
		"total_connections": s.connectionManager.GetConnectionStats().TotalConnections,
		"rooms":             s.registry.RoomCount(),
	}
}

// HandleStats serves Stats as JSON
func (s *Service) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to encode gateway stats")
	}
}

// Stop closes every connection
func (s *Service) Stop() {
	s.connectionManager.CloseAll()
	log.Info().Msg("auction gateway stopped")
}

var _ auction.Notifier = (*ConnectionManager)(nil)
var _ Registry = (*auction.Registry)(nil)
