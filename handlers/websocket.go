package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"food-delivery/api/broadcast"
)

func (s *Server) wsUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	// Couriers authenticate the upgrade via query parameters so their
	// location heartbeats are attributed. Plain subscribers connect without
	// credentials and only receive events.
	courierID := c.Query("delivery_boy_id")
	if courierID != "" && !s.validateWSToken(c.Query("token"), courierID) {
		return fiber.NewError(fiber.StatusUnauthorized, "token is invalid")
	}
	c.Locals("courierID", courierID)
	return c.Next()
}

// locationHeartbeat is the message couriers send over the socket.
type locationHeartbeat struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// wsConn is the slice of the websocket connection the write pump needs.
type wsConn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// writePump forwards hub events to the connection until the event stream
// ends, then closes the connection. A client the hub dropped for falling
// behind gets a real disconnect instead of a silently dead subscription.
func writePump(conn wsConn, events <-chan broadcast.Event) {
	defer conn.Close()
	for ev := range events {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

// handleWebSocket pumps hub events to the connection and reads courier
// location heartbeats off it. Either side failing tears the whole
// connection down.
func (s *Server) handleWebSocket(conn *websocket.Conn) {
	courierID, _ := conn.Locals("courierID").(string)

	client := s.hub.Register()
	defer client.Close()
	connectedClients.Inc()
	defer connectedClients.Dec()

	if courierID != "" && s.presence != nil {
		if err := s.presence.SetActive(context.Background(), courierID, true); err != nil {
			log.Printf("cannot mark courier %s active: %v", courierID, err)
		}
		defer func() {
			if err := s.presence.SetActive(context.Background(), courierID, false); err != nil {
				log.Printf("cannot mark courier %s inactive: %v", courierID, err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		writePump(conn, client.Events())
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if courierID == "" || s.presence == nil {
			continue
		}
		var hb locationHeartbeat
		if err := json.Unmarshal(raw, &hb); err != nil {
			continue
		}
		if err := s.presence.UpdateLocation(context.Background(), courierID, hb.Latitude, hb.Longitude); err != nil {
			log.Printf("cannot record heartbeat for courier %s: %v", courierID, err)
		}
	}

	client.Close()
	<-done
}
