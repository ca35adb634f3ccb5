package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/mkornilova/baraholka-api/internal/config"
	"github.com/mkornilova/baraholka-api/internal/db"
	"github.com/mkornilova/baraholka-api/internal/pubsub"
	"github.com/mkornilova/baraholka-api/internal/services/auth"
	"github.com/mkornilova/baraholka-api/internal/services/catalog"
	"github.com/mkornilova/baraholka-api/internal/services/chat"
	"github.com/mkornilova/baraholka-api/internal/services/favorite"
	"github.com/mkornilova/baraholka-api/internal/services/upload"
	"github.com/mkornilova/baraholka-api/internal/storage"
	"github.com/mkornilova/baraholka-api/internal/ws"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Шина событий для live-лент диалогов
	bus := pubsub.NewMemoryPubsub()
	defer bus.Close()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Baraholka API (MVP)",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Создаём сервисы
	authService := auth.NewAuthService(cfg, storage.NewUserStore(db.Pool))
	catalogService := catalog.NewCatalogService(cfg, storage.NewProductStore(db.Pool))
	chatService := chat.NewChatService(cfg, storage.NewChatStore(db.Pool), bus)
	favoriteService := favorite.NewFavoriteService(cfg, storage.NewFavoriteStore(db.Pool))
	uploadService := upload.NewUploadService(cfg)

	// Регистрируем маршруты. Публичные маршруты каталога должны
	// встать раньше защищённых групп
	catalogService.SetupRoutes(app)
	authService.SetupRoutes(app)
	chatService.SetupRoutes(app)
	favoriteService.SetupRoutes(app)
	uploadService.SetupRoutes(app)

	// WebSocket-мост живёт на отдельном порту поверх net/http
	wsServer := ws.NewServer(cfg, chatService, bus)
	go func() {
		log.Printf("✅ WebSocket сервер запущен на порту %s", cfg.WSPort)
		if err := wsServer.Start(); err != nil {
			log.Fatalf("❌ Ошибка WebSocket сервера: %v", err)
		}
	}()

	// Запускаем сервер
	go func() {
		log.Printf("✅ Baraholka API запущен на порту %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("❌ Ошибка HTTP сервера: %v", err)
		}
	}()

	// Ждем сигнал остановки и закрываем серверы аккуратно
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("⏳ Останавливаем сервер...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка остановки WebSocket сервера: %v", err)
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Ошибка остановки HTTP сервера: %v", err)
	}
	log.Println("✅ Сервер остановлен")
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
