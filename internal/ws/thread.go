package ws

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mkornilova/baraholka-api/internal/models"
)

// Thread хранит упорядоченную последовательность сообщений открытого диалога:
// начальный снимок плюс события live-ленты. Повторно доставленное событие
// (или сообщение, уже попавшее в снимок) отбрасывается по ID.
// Пропущенное событие не восстанавливается до полной перезагрузки —
// допустимо только для малообъемной переписки двух людей
type Thread struct {
	mu       sync.Mutex
	seen     map[uuid.UUID]struct{}
	messages []models.Message
}

// NewThread создает последовательность, засеянную снимком
func NewThread(snapshot []models.Message) *Thread {
	t := &Thread{
		seen:     make(map[uuid.UUID]struct{}, len(snapshot)),
		messages: make([]models.Message, 0, len(snapshot)),
	}
	for _, msg := range snapshot {
		t.seen[msg.ID] = struct{}{}
		t.messages = append(t.messages, msg)
	}
	return t
}

// Append добавляет сообщение в конец последовательности.
// Возвращает false, если сообщение с таким ID уже присутствует
func (t *Thread) Append(msg models.Message) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[msg.ID]; ok {
		return false
	}
	t.seen[msg.ID] = struct{}{}
	t.messages = append(t.messages, msg)
	return true
}

// Messages возвращает копию текущей последовательности
func (t *Thread) Messages() []models.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len возвращает длину последовательности
func (t *Thread) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}
