package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"

	"github.com/stefanm/authgate/internal/auth"
	"github.com/stefanm/authgate/internal/config"
	"github.com/stefanm/authgate/internal/database"
	"github.com/stefanm/authgate/internal/handlers"
	authmw "github.com/stefanm/authgate/internal/middleware"
	"github.com/stefanm/authgate/internal/resolver"
	"github.com/stefanm/authgate/internal/session"
	"github.com/stefanm/authgate/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	users := store.NewUserStore(db)
	passwords := auth.NewPasswordService()
	res := resolver.New(users, passwords)
	sessions := session.NewBinder(cfg.SessionSecret, cfg.SessionExpiry, users)

	authHandler := handlers.NewAuthHandler(cfg, res, sessions, users)
	userHandler := handlers.NewUserHandler(res)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/:provider/consent", authHandler.Consent)
	authRoutes.Get("/:provider/callback", authHandler.Callback)

	protected := api.Group("")
	protected.Use(authmw.Auth(sessions))

	protected.Get("/connect/:provider", authHandler.ConnectConsent)
	protected.Post("/connect/local", authHandler.ConnectLocal)
	protected.Delete("/unlink/:provider", authHandler.Unlink)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Delete("/users/me", userHandler.DeleteMe)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Printf("Server starting on %s", addr)
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}
