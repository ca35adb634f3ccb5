// Package pubsub реализует внутрипроцессную шину событий для live-обновлений.
// Подписка — это capability: Subscribe возвращает функцию отмены,
// которую владелец обязан вызвать при закрытии представления.
package pubsub

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Listener вызывается для каждого опубликованного события темы
type Listener func(ctx context.Context, payload []byte)

// Pubsub — контракт шины событий
type Pubsub interface {
	// Subscribe подписывает listener на тему и возвращает функцию отмены подписки
	Subscribe(topic string, listener Listener) (cancel func(), err error)
	// Publish доставляет payload всем текущим подписчикам темы
	Publish(topic string, payload []byte) error
	Close() error
}

// ConversationTopic возвращает имя темы для событий вставки сообщений диалога
func ConversationTopic(conversationID uuid.UUID) string {
	return "chat:" + conversationID.String()
}

// MemoryPubsub — реализация Pubsub в памяти процесса.
// Все долговременное состояние живет в БД, шина доставляет только
// события "сообщение вставлено" открытым представлениям
type MemoryPubsub struct {
	mu        sync.RWMutex
	closed    bool
	listeners map[string]map[uuid.UUID]Listener
}

// NewMemoryPubsub создает новый экземпляр MemoryPubsub
func NewMemoryPubsub() *MemoryPubsub {
	return &MemoryPubsub{
		listeners: make(map[string]map[uuid.UUID]Listener),
	}
}

// Subscribe регистрирует подписчика темы
func (m *MemoryPubsub) Subscribe(topic string, listener Listener) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return func() {}, nil
	}

	topicListeners, ok := m.listeners[topic]
	if !ok {
		topicListeners = make(map[uuid.UUID]Listener)
		m.listeners[topic] = topicListeners
	}

	id := uuid.New()
	topicListeners[id] = listener

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if topicListeners, ok := m.listeners[topic]; ok {
			delete(topicListeners, id)
			if len(topicListeners) == 0 {
				delete(m.listeners, topic)
			}
		}
	}, nil
}

// Publish доставляет событие всем подписчикам темы. Доставка синхронная
// в горутинах подписчиков; обработчики не должны блокироваться надолго
func (m *MemoryPubsub) Publish(topic string, payload []byte) error {
	m.mu.RLock()
	topicListeners, ok := m.listeners[topic]
	if !ok {
		m.mu.RUnlock()
		return nil
	}
	listeners := make([]Listener, 0, len(topicListeners))
	for _, l := range topicListeners {
		listeners = append(listeners, l)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, listener := range listeners {
		wg.Add(1)
		go func(l Listener) {
			defer wg.Done()
			l(context.Background(), payload)
		}(listener)
	}
	wg.Wait()

	return nil
}

// Close останавливает шину; последующие подписки игнорируются
func (m *MemoryPubsub) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.listeners = make(map[string]map[uuid.UUID]Listener)
	return nil
}
