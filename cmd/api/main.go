package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mercato/customer-accounts/internal/http/handlers"
	"github.com/mercato/customer-accounts/internal/mailer"
	"github.com/mercato/customer-accounts/internal/repository"
	"github.com/mercato/customer-accounts/internal/service"
	"github.com/mercato/customer-accounts/pkg/config"
	"github.com/mercato/customer-accounts/pkg/database"
	"github.com/mercato/customer-accounts/pkg/events"
	"github.com/mercato/customer-accounts/pkg/logger"
	mw "github.com/mercato/customer-accounts/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to Redis (rate limiting)
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Failed to parse Redis URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Pick a mailer
	var mailService mailer.Service
	switch {
	case cfg.Email.DevMode:
		mailService = mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		mailService = mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		mailService = mailer.NewSMTPMailer(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass,
			cfg.Email.SMTPUseTLS,
		)
	}

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	resetRepo := repository.NewResetTokenRepository(pool)
	rateLimitRepo := repository.NewRateLimitRepository(redisClient)

	// Initialize services
	accountService := service.NewAccountService(customerRepo, cartRepo, eventBus, cfg)
	resetService := service.NewResetService(customerRepo, resetRepo, mailService, eventBus, cfg)
	cartService := service.NewCartService(customerRepo, productRepo, cartRepo, eventBus)

	// Initialize handlers
	h := handlers.New(accountService, resetService, cartService, rateLimitRepo, cfg)

	// Sweep expired reset tokens in the background until shutdown
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go service.SweepExpiredResetTokens(sweepCtx, resetRepo, time.Hour)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("customer-accounts"))
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		// Credentials must be on for the SameSite=None session cookie
		AllowedOrigins:   []string{cfg.Frontend.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Routes
	r.Route("/v1/customers", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.With(h.RateLimit("login", 10, time.Minute)).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/login-status", h.LoginStatus)

		r.With(h.RateLimit("forgot_password", 5, time.Minute)).Post("/forgot-password", h.ForgotPassword)
		r.Put("/reset-password/{resetToken}", h.ResetPassword)

		r.Get("/", h.ListCustomers)
		r.Get("/{id}", h.GetCustomer)
		r.Patch("/{id}", h.UpdateCustomer)
		r.Delete("/{id}", h.DeleteCustomer)
		r.Patch("/{id}/password", h.ChangePassword)

		r.Post("/{id}/cart", h.AddToCart)
		r.Delete("/{id}/cart/{productID}", h.RemoveFromCart)
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down customer accounts service...")
		stopSweeper()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting customer accounts service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
