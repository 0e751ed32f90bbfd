package stream

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func RegisterRoutes(r fiber.Router, hub *Hub) {
	r.Get("/ws/:recordingID", websocket.New(func(c *websocket.Conn) {
		sub := hub.Subscribe(c.Params("recordingID"))

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range sub.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					break
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		// Unsubscribing closes Send, so the writer exits even when the
		// recording is idle.
		hub.Unsubscribe(sub)
		<-done
	}))
}
