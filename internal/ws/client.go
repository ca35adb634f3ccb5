package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Максимальное время ожидания pong от клиента
	pongWait = 60 * time.Second

	// Интервал отправки ping-сообщений клиенту
	pingPeriod = (pongWait * 9) / 10

	// Таймаут записи в сокет
	writeWait = 10 * time.Second

	// Максимальный размер входящего сообщения
	maxMessageSize = 4 * 1024

	// Размер буфера исходящих сообщений
	sendBufferSize = 256
)

// Client представляет одно WebSocket-соединение открытого представления диалога
type Client struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ConversationID uuid.UUID

	conn      *websocket.Conn
	send      chan []byte
	manager   *Manager
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient создает новый экземпляр Client
func NewClient(userID, conversationID uuid.UUID, conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:             uuid.New(),
		UserID:         userID,
		ConversationID: conversationID,
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		manager:        manager,
		done:           make(chan struct{}),
	}
}

// Start запускает клиентские горутины чтения и записи
func (c *Client) Start() {
	c.manager.AddClient(c)
	go c.readPump()
	go c.writePump()
}

// Done закрывается при завершении соединения
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close завершает соединение
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
		c.manager.RemoveClient(c.ID)
	})
}

// SendEvent сериализует событие и ставит его в очередь отправки.
// Слишком медленный клиент отключается, чтобы не копить буфер
func (c *Client) SendEvent(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Ошибка сериализации события: %v", err)
		return
	}

	select {
	case c.send <- payload:
	default:
		log.Printf("Очередь отправки клиента %s переполнена, закрываем соединение", c.ID)
		c.Close()
	}
}

// readPump читает входящие кадры. Клиент ничего не присылает по контракту,
// цикл нужен для обработки pong и обнаружения закрытия
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("Неожиданное закрытие соединения: %v", err)
			}
			return
		}
	}
}

// writePump отправляет сообщения клиенту и поддерживает соединение ping-ами
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
