package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxPacketSize = 1 << 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// UI открывается с другого порта
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS принимает websocket соединение UI. Каждый входящий пакет
// обрабатывается в отдельной горутине, чтобы не блокировать чтение.
// @Summary Websocket UI
// @Description Двунаправленный канал JSON пакетов {"type": ...}.
// @Tags UI
// @Router /ws [get]
func (h *Handler) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "remote_addr", c.Request.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(maxPacketSize)

	id := h.broadcaster.Register(conn)
	defer h.broadcaster.Unregister(id)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Websocket read failed", "clientID", id, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}
		go h.router.HandlePacket(data)
	}
}
