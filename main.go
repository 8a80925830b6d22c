package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"voteon/internal/config"
	"voteon/internal/container"
	"voteon/internal/domain"
	"voteon/internal/handler"
	"voteon/internal/middleware"
	"voteon/pkg/database"
	"voteon/pkg/logger"
	"voteon/pkg/redis"
)

// Resources holds all resources that need cleanup
type Resources struct {
	db          *database.PostgresDB
	redisClient *redis.Client
	server      *http.Server
	log         *logger.Logger
	mu          sync.Mutex
	closed      bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errs = append(errs, fmt.Errorf("Redis close: %w", err))
		} else {
			r.log.Info("Redis connection closed")
		}
	}

	if r.db != nil {
		r.db.Close()
		r.log.Info("Database connection pool closed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"class_match": cfg.ClassMatchMode,
	}).Info("Starting voteon server")

	// Initialize database connection
	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Create dependency injection container
	c, err := container.New(cfg, log, db)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	// Setup router
	router := setupRouter(c)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		db:          db,
		redisClient: c.RedisClient,
		server:      server,
		log:         log,
	}

	// Setup graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	// Wait for interrupt signal or server error
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.Config
	log := c.Logger

	r := chi.NewRouter()

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := handler.NewHealthHandler(c.DB, healthCheckerOrNil(c.RedisClient), log)
	studentHandler := handler.NewStudentHandler(c.StudentService, log)
	electionHandler := handler.NewElectionHandler(c.ElectionService, log)
	candidacyHandler := handler.NewCandidacyHandler(c.CandidacyService, log)
	promotionHandler := handler.NewPromotionHandler(c.PromotionService, log)
	auditHandler := handler.NewAuditHandler(c.AuditService, log)

	officials := middleware.RequireRole(log, domain.RoleAdmin, domain.RoleReturningOfficer)
	reviewers := middleware.RequireRole(log, domain.RoleTeacher, domain.RoleAdmin, domain.RoleReturningOfficer)

	// Health check (no auth required)
	r.Get("/health", healthHandler.Check)

	r.Route("/api/v1", func(r chi.Router) {
		// Registration and login (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", studentHandler.Register)
			r.Post("/verify-otp", studentHandler.VerifyOTP)
			r.Post("/login", studentHandler.Login)
		})

		// Everything else requires a resolved identity
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(c.AuthService, log))

			r.Route("/elections", func(r chi.Router) {
				r.Get("/", electionHandler.List)
				r.Get("/for-student", electionHandler.ForStudent)
				r.Get("/{electionID}", electionHandler.Get)
				r.Get("/{electionID}/results", electionHandler.Results)
				r.Post("/{electionID}/vote", electionHandler.Vote)

				// Lifecycle operations are restricted to election officials
				r.Group(func(r chi.Router) {
					r.Use(officials)
					r.Post("/", electionHandler.Create)
					r.Post("/{electionID}/candidates", electionHandler.AddCandidate)
					r.Post("/{electionID}/schedule", electionHandler.Schedule)
					r.Post("/{electionID}/start", electionHandler.Start)
					r.Post("/{electionID}/end", electionHandler.End)
					r.Post("/{electionID}/resolve-tie", electionHandler.ResolveTie)
					r.Post("/{electionID}/cancel", electionHandler.Cancel)
				})
			})

			r.Route("/candidacy", func(r chi.Router) {
				r.Post("/nominate", candidacyHandler.Nominate)

				r.Group(func(r chi.Router) {
					r.Use(reviewers)
					r.Get("/pending", candidacyHandler.Pending)
					r.Post("/{studentID}/approve", candidacyHandler.Approve)
					r.Post("/{studentID}/reject", candidacyHandler.Reject)
					r.Post("/{studentID}/revoke", candidacyHandler.Revoke)
				})
			})

			r.Route("/promotion", func(r chi.Router) {
				r.Use(officials)
				r.Post("/promote-winners", promotionHandler.PromoteWinners)
				r.Get("/class-winners", promotionHandler.ClassWinners)
				r.Post("/elections/{electionID}/candidates", promotionHandler.EnrollWinner)
			})

			r.Route("/students", func(r chi.Router) {
				r.Get("/me", studentHandler.Me)

				r.Group(func(r chi.Router) {
					r.Use(reviewers)
					r.Put("/{studentID}/attendance", studentHandler.UpdateAttendance)
				})
			})

			r.Route("/audit", func(r chi.Router) {
				r.Use(officials)
				r.Get("/", auditHandler.List)
			})
		})
	})

	return r
}

// healthCheckerOrNil avoids a typed-nil interface when Redis is disabled.
func healthCheckerOrNil(client *redis.Client) handler.HealthChecker {
	if client == nil {
		return nil
	}
	return client
}
