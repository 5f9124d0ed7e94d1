// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"printer-service/internal/utils"
)

// WebSocketHandler streams service events to operator clients
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	bus         *EventBus
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a WebSocket handler and starts forwarding
// bus events to connected clients.
func NewWebSocketHandler(bus *EventBus, logger *zap.Logger) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// The service runs on a private restaurant LAN
			return true
		},
	}

	handler := &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		bus:         bus,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}

	go handler.forwardEvents()
	return handler
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/events", h.HandleEventConnection)
}

// HandleEventConnection upgrades the request and attaches the client to
// the event feed. Recent events are replayed so the client sees a scan or
// alert that is already underway.
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("Event client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	for _, event := range h.bus.Recent() {
		if data, err := json.Marshal(event); err == nil {
			client.Send <- data
		}
	}

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// forwardEvents pushes every bus event to all connected clients
func (h *WebSocketHandler) forwardEvents() {
	for event := range h.bus.Subscribe() {
		data, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("Failed to marshal event", zap.Error(err))
			continue
		}

		for _, client := range h.connections.All() {
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Client send channel full, dropping event",
					zap.String("client_id", client.ID),
				)
			}
		}
	}
}

func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			break
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			continue
		}

		if message.Type == "ping" {
			h.sendMessage(client, &WebSocketMessage{
				Type:      "pong",
				Timestamp: time.Now(),
			})
		}
	}
}

func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
	}
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
