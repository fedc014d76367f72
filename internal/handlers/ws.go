package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	apierrors "github.com/devtrackhq/statusboard/internal/errors"
	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/middleware"
	"github.com/devtrackhq/statusboard/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameHostOrigin,
}

// sameHostOrigin accepts browser connections only from pages served by
// this host. Non-browser clients send no Origin header and pass; the
// session cookie check still gates them.
func sameHostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// WSHandler upgrades authenticated clients onto the event hub.
type WSHandler struct {
	hub              *events.Hub
	developerService *services.DeveloperService
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(hub *events.Hub, developerService *services.DeveloperService) *WSHandler {
	return &WSHandler{
		hub:              hub,
		developerService: developerService,
	}
}

// Subscribe upgrades the connection and streams change events until
// the client disconnects.
func (h *WSHandler) Subscribe(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	developer, err := h.developerService.GetDeveloper(developerID)
	if err != nil {
		respondDeveloperError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure response.
		return
	}

	h.hub.HandleConnection(conn, developer.Username)
}
