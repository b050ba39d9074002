package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"reqtrack/backend/internal/api/handler"
	"reqtrack/backend/internal/dispatch"
	"reqtrack/backend/internal/feedhub"
	"reqtrack/backend/internal/filesec"
	"reqtrack/backend/internal/filestore"
	"reqtrack/backend/internal/lifecycle"
	"reqtrack/backend/internal/localization"
	"reqtrack/backend/internal/models"
	"reqtrack/backend/internal/notify"
	"reqtrack/backend/internal/storage"
	"reqtrack/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies() (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		envOr("DB_HOST", "localhost"),
		envOr("DB_USER", "user"),
		envOr("DB_PASSWORD", "password"),
		envOr("DB_NAME", "reqtrackdb"),
		envOr("DB_PORT", "5432"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	// 3. Migrations
	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Request{},
		&models.RequestFile{},
		&models.Comment{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log.Println("Starting ReqTrack Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	// 1. Dependencies
	db, rdb := setupDependencies()
	s := storage.NewStorageService(db, rdb)

	localizer := localization.NewLocalizer()
	if dir := os.Getenv("LOCALIZATION_DIR"); dir != "" {
		if err := localizer.LoadOverrides(dir); err != nil {
			log.Printf("WARNING: Failed to load localization overrides: %v", err)
		}
	}

	objects := filestore.NewDiskStore(envOr("OBJECT_STORE_ROOT", "./data/objects"))
	securer := filesec.NewPipeline()
	notifier := notify.NewService(s)
	engine := lifecycle.NewEngine(s, notifier, securer, objects, localizer)
	engine.Lang = envOr("NOTIFY_LANG", "en")

	// 2. Feed hub and dispatcher
	hub := feedhub.NewManagerService(s)
	dispatcher := dispatch.NewDispatcherService(engine, s)

	go hub.Run()
	go dispatcher.Run()

	// Optional Telegram bridge
	if botToken := os.Getenv("TELEGRAM_BOT_TOKEN"); botToken != "" {
		botService, err := telegram.NewBotService(botToken, hub, s)
		if err != nil {
			log.Fatalf("Failed to start the Telegram bridge: %v", err)
		}
		go botService.Run()
	}

	// 3. Gin routing
	r := gin.Default()
	h := handler.NewHandler(engine, s, hub)

	r.POST("/auth/token", h.IssueToken)
	r.GET("/ws", h.ServeWebSocket)

	authorized := r.Group("/", h.AuthRequired())
	{
		authorized.POST("/requests", h.CreateRequest)
		authorized.GET("/requests", h.ListRequests)
		authorized.GET("/requests/check-duplicate", h.CheckDuplicate)
		authorized.GET("/requests/:id", h.GetRequest)
		authorized.PATCH("/requests/:id", h.UpdateRequest)
		authorized.PATCH("/requests/:id/status", h.ChangeStatus)
		authorized.DELETE("/requests/:id", h.DeleteRequest)

		authorized.POST("/requests/:id/files", h.UploadFiles)
		authorized.GET("/requests/:id/files", h.ListFiles)

		authorized.POST("/requests/:id/comments", h.AddComment)
		authorized.GET("/requests/:id/comments", h.ListComments)

		authorized.GET("/notifications", h.ListNotifications)
		authorized.POST("/notifications/:id/read", h.MarkNotificationRead)
		authorized.GET("/notifications/unread-count", h.UnreadCount)

		authorized.PUT("/availability", h.SetAvailability)
	}

	server := &http.Server{
		Addr:           ":" + envOr("PORT", "8080"),
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
