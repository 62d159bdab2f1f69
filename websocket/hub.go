package websocket

import (
	"log"
	"sync"

	"github.com/dmutua254/home_services/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// The hub fans newly paid bookings out to every connected provider, so the
// race for an assignment starts the moment the payment settles rather than on
// the next poll.

type Client struct {
	ProviderID uuid.UUID
	Conn       *websocket.Conn
}

type bookingEvent struct {
	Event   string          `json:"event"`
	Booking *models.Booking `json:"booking"`
}

var clients = make(map[uuid.UUID]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var paidBookings = make(chan *models.Booking, 16)

// BroadcastBookingPaid queues a paid booking for fan-out. Non-blocking: if the
// hub is backed up the event is dropped, providers still see the booking on
// their next listing fetch.
func BroadcastBookingPaid(booking *models.Booking) {
	select {
	case paidBookings <- booking:
	default:
		log.Printf("Booking feed backlog full, dropping push for %s", booking.ID)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Provider connected to booking feed: %s", client.ProviderID)
			clientsMu.Lock()
			clients[client.ProviderID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Provider disconnected from booking feed: %s", client.ProviderID)
			clientsMu.Lock()
			if conn, ok := clients[client.ProviderID]; ok && conn == client.Conn {
				delete(clients, client.ProviderID)
			}
			clientsMu.Unlock()
		case booking := <-paidBookings:
			event := bookingEvent{Event: "booking_paid", Booking: booking}

			clientsMu.RLock()
			stale := make([]uuid.UUID, 0)
			for providerID, conn := range clients {
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Error pushing booking to provider %s: %v", providerID, err)
					conn.Close()
					stale = append(stale, providerID)
				}
			}
			clientsMu.RUnlock()

			if len(stale) > 0 {
				clientsMu.Lock()
				for _, providerID := range stale {
					delete(clients, providerID)
				}
				clientsMu.Unlock()
			}
		}
	}
}
