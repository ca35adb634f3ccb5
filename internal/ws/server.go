package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mkornilova/baraholka-api/internal/apperr"
	"github.com/mkornilova/baraholka-api/internal/config"
	"github.com/mkornilova/baraholka-api/internal/db"
	"github.com/mkornilova/baraholka-api/internal/models"
	"github.com/mkornilova/baraholka-api/internal/pubsub"
	"github.com/mkornilova/baraholka-api/internal/utils"
)

// EventType определяет тип события live-ленты
type EventType string

const (
	// EventSnapshot — начальный снимок сообщений диалога
	EventSnapshot EventType = "snapshot"
	// EventNewMessage — вставка нового сообщения
	EventNewMessage EventType = "new_message"
)

// Event представляет кадр, отправляемый открытому представлению диалога
type Event struct {
	Type           EventType        `json:"type"`
	ConversationID uuid.UUID        `json:"conversation_id"`
	Message        *models.Message  `json:"message,omitempty"`
	Messages       []models.Message `json:"messages,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// ChatAPI — часть сервиса диалогов, нужная live-мосту
type ChatAPI interface {
	GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*models.Conversation, error)
	ListMessages(ctx context.Context, conversationID, userID uuid.UUID) ([]models.Message, error)
}

// Server обслуживает WebSocket-подключения открытых представлений диалогов.
// Живет на отдельном порту: Fiber работает поверх fasthttp,
// а gorilla/websocket требует стандартный net/http
type Server struct {
	cfg        *config.Config
	chats      ChatAPI
	bus        pubsub.Pubsub
	jwtService *utils.JWTService
	manager    *Manager
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// NewServer создает новый экземпляр Server
func NewServer(cfg *config.Config, chats ChatAPI, bus pubsub.Pubsub) *Server {
	return &Server{
		cfg:        cfg,
		chats:      chats,
		bus:        bus,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		manager:    NewManager(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			// API отдается на другом порту, Origin проверяет прокси
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start запускает WebSocket сервер (блокирующий вызов)
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/chats/", s.handleConversation)

	s.httpServer = &http.Server{
		Addr:    ":" + s.cfg.WSPort,
		Handler: mux,
	}

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown останавливает сервер и закрывает активные соединения
func (s *Server) Shutdown(ctx context.Context) error {
	s.manager.Shutdown()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// handleConversation открывает live-ленту диалога для его участника
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	// Токен передается в query: заголовки недоступны из браузерного WebSocket API
	userIDStr, err := s.jwtService.ExtractUserID(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Невалидный или истекший токен", http.StatusUnauthorized)
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		http.Error(w, "Неверный формат ID пользователя", http.StatusUnauthorized)
		return
	}

	conversationID, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/ws/chats/"))
	if err != nil {
		http.Error(w, "Неверный формат ID диалога", http.StatusBadRequest)
		return
	}

	// Доступ только участникам; для остальных диалога не существует
	ctx, cancel := db.GetContext()
	conv, err := s.chats.GetConversation(ctx, conversationID, userID)
	cancel()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.Error(w, "Диалог не найден", http.StatusNotFound)
			return
		}
		log.Printf("Ошибка проверки доступа к диалогу: %v", err)
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Ошибка обновления соединения: %v", err)
		return
	}

	client := NewClient(userID, conv.ID, conn, s.manager)
	client.Start()

	go s.serveFeed(client)
}

// serveFeed ведет live-ленту одного открытого представления: подписка,
// снимок, затем события вставки. Подписка открывается ДО загрузки снимка,
// перекрытие двух источников гасится дедупликацией по ID сообщения
func (s *Server) serveFeed(client *Client) {
	defer client.Close()

	events := make(chan []byte, sendBufferSize)
	cancel, err := s.bus.Subscribe(pubsub.ConversationTopic(client.ConversationID), func(_ context.Context, payload []byte) {
		select {
		case events <- payload:
		case <-client.Done():
		}
	})
	if err != nil {
		log.Printf("Ошибка подписки на события диалога %s: %v", client.ConversationID, err)
		return
	}
	defer cancel()

	ctx, cancelCtx := db.GetContext()
	snapshot, err := s.chats.ListMessages(ctx, client.ConversationID, client.UserID)
	cancelCtx()
	if err != nil {
		log.Printf("Ошибка загрузки снимка диалога %s: %v", client.ConversationID, err)
		return
	}

	thread := NewThread(snapshot)
	client.SendEvent(Event{
		Type:           EventSnapshot,
		ConversationID: client.ConversationID,
		Messages:       thread.Messages(),
		Timestamp:      time.Now(),
	})

	for {
		select {
		case payload := <-events:
			var msg models.Message
			if err := json.Unmarshal(payload, &msg); err != nil {
				log.Printf("Ошибка разбора события сообщения: %v", err)
				continue
			}
			// Повторная доставка или сообщение из снимка — пропускаем
			if !thread.Append(msg) {
				continue
			}
			client.SendEvent(Event{
				Type:           EventNewMessage,
				ConversationID: client.ConversationID,
				Message:        &msg,
				Timestamp:      time.Now(),
			})
		case <-client.Done():
			return
		}
	}
}
