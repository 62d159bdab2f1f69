package routes

import (
	"github.com/dmutua254/home_services/middleware"
	ws "github.com/dmutua254/home_services/websocket"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func WebSocketRoutes(app *fiber.App) {
	app.Use("/api/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/api/ws/provider", middleware.Protected(), middleware.ProviderRequired(),
		websocket.New(func(conn *websocket.Conn) {
			token := conn.Locals("user").(*jwt.Token)
			claims := token.Claims.(jwt.MapClaims)
			providerID, _ := uuid.Parse(claims["user_id"].(string))

			client := &ws.Client{ProviderID: providerID, Conn: conn}
			ws.Register <- client
			defer func() {
				ws.Unregister <- client
				conn.Close()
			}()

			// Reads are discarded; the feed is push-only. Blocking here keeps
			// the connection open and lets us notice the close.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}))
}
