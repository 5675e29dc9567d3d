package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/metrics"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
)

const writeWait = 5 * time.Second

// Conn - то, что нужно от websocket соединения. *websocket.Conn удовлетворяет интерфейсу.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// client - одно живое UI соединение; запись в него сериализована.
type client struct {
	id   string
	conn Conn
	mu   sync.Mutex
}

func (c *client) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Broadcaster хранит набор живых соединений и рассылает им сообщения.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  *logging.Logger
	metrics *metrics.Metrics
}

var _ interfaces.Broadcaster = (*Broadcaster)(nil)

func NewBroadcaster(logger *logging.Logger, m *metrics.Metrics) *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*client),
		logger:  logger.WithPrefix("BROADCAST"),
		metrics: m,
	}
}

// Register добавляет соединение и возвращает его идентификатор.
func (b *Broadcaster) Register(conn Conn) string {
	id := uuid.New().String()

	b.mu.Lock()
	b.clients[id] = &client{id: id, conn: conn}
	n := len(b.clients)
	b.mu.Unlock()

	b.metrics.SetClients(n)
	b.logger.Info("Client connected", "clientID", id, "clients", n)
	return id
}

// Unregister удаляет соединение. Возвращает false, если его уже нет.
func (b *Broadcaster) Unregister(id string) bool {
	b.mu.Lock()
	c, ok := b.clients[id]
	if ok {
		delete(b.clients, id)
	}
	n := len(b.clients)
	b.mu.Unlock()

	if !ok {
		return false
	}
	_ = c.conn.Close()
	b.metrics.SetClients(n)
	b.logger.Info("Client disconnected", "clientID", id, "clients", n)
	return true
}

// Count возвращает количество живых соединений.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// SendAll отправляет сообщение каждому соединению независимо.
// Соединение, в которое не удалось записать, удаляется из набора; остальные получают сообщение.
func (b *Broadcaster) SendAll(payload []byte) {
	b.mu.RLock()
	snapshot := make([]*client, 0, len(b.clients))
	for _, c := range b.clients {
		snapshot = append(snapshot, c)
	}
	b.mu.RUnlock()

	b.metrics.Broadcast()
	for _, c := range snapshot {
		if err := c.send(payload); err != nil {
			b.logger.Warn("Send failed, dropping client", "clientID", c.id, "error", err)
			if b.Unregister(c.id) {
				b.metrics.Pruned()
			}
		}
	}
}

// SendAllJSON сериализует значение и рассылает его. Ошибка сериализации логируется, ничего не отправляется.
func (b *Broadcaster) SendAllJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logger.Error("Failed to serialize broadcast payload", "error", err)
		return
	}
	b.SendAll(payload)
}

// SendTo отправляет сообщение одному соединению.
func (b *Broadcaster) SendTo(id string, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.mu.RLock()
	c, ok := b.clients[id]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	if err := c.send(payload); err != nil {
		if b.Unregister(id) {
			b.metrics.Pruned()
		}
		return err
	}
	return nil
}
