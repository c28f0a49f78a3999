package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley-server/internal/core"
)

// APIHandlers provides read-only HTTP endpoints for observing the running
// server. Nothing here mutates registry state; all writes stay with the
// resolver.
type APIHandlers struct {
	clients *core.ClientRegistry
	rooms   *core.RoomRegistry
	log     *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(clients *core.ClientRegistry, rooms *core.RoomRegistry, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		clients: clients,
		rooms:   rooms,
		log:     logger,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

// StatsResponse represents server counters.
type StatsResponse struct {
	OnlineClients int `json:"online_clients"`
	Rooms         int `json:"rooms"`
}

// ListRooms handles the room listing endpoint. DM sessions are private and
// never reported here.
// GET /api/rooms
func (h *APIHandlers) ListRooms(c *gin.Context) {
	rooms := h.rooms.Rooms()
	out := make([]RoomResponse, 0, len(rooms))
	for _, info := range rooms {
		out = append(out, RoomResponse{
			ID:          info.ID,
			Name:        info.Name,
			MemberCount: info.MemberCount,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Stats handles the server counters endpoint.
// GET /api/stats
func (h *APIHandlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{
		OnlineClients: h.clients.Count(),
		Rooms:         h.rooms.RoomCount(),
	})
}
