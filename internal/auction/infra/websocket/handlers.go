package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	sharedws "github.com/hammerdown/auctionhouse/internal/shared/websocket"
)

// Upgrade rejects plain HTTP requests on the feed endpoint.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// FeedHandler subscribes the connection to one auction's live event feed.
// Route: GET /ws/auctions/:id
func FeedHandler(hub *sharedws.Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		auctionID, err := uuid.Parse(conn.Params("id"))
		if err != nil {
			_ = conn.Close()
			return
		}

		client := &sharedws.Client{
			Hub:       hub,
			Conn:      conn,
			Send:      make(chan []byte, 16),
			AuctionID: auctionID.String(),
			ID:        uuid.NewString(),
		}
		hub.RegisterClient(client)

		go client.WritePump()
		client.ReadPump() // blocks until the client disconnects
	})
}
