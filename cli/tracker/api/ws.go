package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/daniil11ru/fleetwatch/cli/tracker/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub рассылает срезы активного парка подключённым панелям оператора.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// Broadcast отправляет срез парка всем подключённым клиентам.
// Отвалившиеся клиенты удаляются по ошибке записи.
func (h *Hub) Broadcast(active []types.VehiclePosition) {
	data, err := json.Marshal(active)
	if err != nil {
		log.WithField("err", err).Error("Не удалось сериализовать срез парка")
		return
	}

	h.mu.Lock()
	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			c.Close()
			delete(h.clients, c)
		}
	}
	h.mu.Unlock()
}

// HandleWebSocket поднимает соединение и сразу отправляет текущий срез,
// чтобы панель заполнилась без ожидания первого обновления.
func (h *Handler) HandleWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.WithField("err", err).Warn("Не удалось открыть WebSocket")
			return
		}

		// Снимок отправляется до регистрации в хабе, чтобы не пересечься
		// с широковещательной записью в то же соединение.
		snapshot, _ := json.Marshal(h.Fleet.Active())
		_ = conn.WriteMessage(websocket.TextMessage, snapshot)

		hub.add(conn)
		go readPump(hub, conn)
	}
}

func readPump(hub *Hub, c *websocket.Conn) {
	defer func() {
		hub.remove(c)
		_ = c.Close()
	}()
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
