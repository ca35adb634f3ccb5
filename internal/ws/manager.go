package ws

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Manager отслеживает активные WebSocket-соединения
type Manager struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

// NewManager создает новый экземпляр Manager
func NewManager() *Manager {
	return &Manager{
		clients: make(map[uuid.UUID]*Client),
	}
}

// AddClient регистрирует нового клиента
func (m *Manager) AddClient(client *Client) {
	m.mu.Lock()
	m.clients[client.ID] = client
	m.mu.Unlock()

	log.Printf("WebSocket клиент %s подключен: пользователь %s, диалог %s",
		client.ID, client.UserID, client.ConversationID)
}

// RemoveClient удаляет клиента из реестра
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.mu.Lock()
	client, exists := m.clients[clientID]
	delete(m.clients, clientID)
	m.mu.Unlock()

	if exists {
		log.Printf("WebSocket клиент %s отключен: пользователь %s", clientID, client.UserID)
	}
}

// Count возвращает количество активных соединений
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Shutdown закрывает все активные соединения
func (m *Manager) Shutdown() {
	m.mu.Lock()
	clients := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		clients = append(clients, client)
	}
	m.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}
