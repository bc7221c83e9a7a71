package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"guessr/middleware"
	"guessr/services"
)

// FeedHandler upgrades requests to the live leaderboard websocket.
type FeedHandler struct {
	hub      *services.Hub
	upgrader websocket.Upgrader
}

// NewFeedHandler accepts same-origin requests, requests without an Origin
// header, and requests from the listed origins.
func NewFeedHandler(hub *services.Hub, origins []string) *FeedHandler {
	return &FeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host || slices.Contains(origins, origin)
			},
		},
	}
}

func (h *FeedHandler) Leaderboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response.
		middleware.Logger(c).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.hub.RegisterClient(conn, userID)
}
