package user

import (
	"context"
	"errors"
	"log"
	"time"

	"ecom_back_end/internal/apperr"
	"ecom_back_end/internal/middleware"
	"ecom_back_end/internal/models"
	"ecom_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type cartEvent struct {
	Type    string           `json:"type"`
	Message string           `json:"message,omitempty"`
	Cart    *models.CartView `json:"cart,omitempty"`
}

// GET /cart/ws
// Pousse le panier à jour au client à chaque notification Redis.
func (h *Handler) CartWebSocket(c *gin.Context) {
	if _, err := requesterID(c); err != nil {
		utils.RespondError(c, err)
		return
	}
	owner := middleware.CartOwner(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := h.carts.Subscribe(ctx, owner)
	defer pubsub.Close()
	ch := pubsub.Channel()

	// lecture : détecte la fermeture côté client
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(ev cartEvent) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(ev)
	}

	if err := write(cartEvent{Type: "connected", Message: "Synchronisation panier activée"}); err != nil {
		return
	}
	log.Printf("🔌 WebSocket panier ouvert pour %s", owner)

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("🔌 WebSocket panier fermé pour %s", owner)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			cart, err := h.carts.Get(ctx, owner)
			if errors.Is(err, apperr.ErrNotFound) {
				cart, err = &models.CartView{Owner: owner, Items: []models.CartLine{}}, nil
			}
			if err != nil {
				log.Printf("⚠️ Lecture panier %s (%s): %v", owner, msg.Payload, err)
				continue
			}
			if err := write(cartEvent{Type: "cart_updated", Cart: cart}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
