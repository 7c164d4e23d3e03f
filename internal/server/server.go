package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"apparel-pos/internal/cache"
	"apparel-pos/internal/config"
	custommiddleware "apparel-pos/internal/middleware"
	"apparel-pos/internal/repository"
	"apparel-pos/internal/service"
	"apparel-pos/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Redis backs the dashboard cache and write-path rate limiting. Both
	// degrade gracefully when redis is disabled.
	var redisClient *redis.Client
	var cacheClient cache.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cacheClient = cache.NewRedis(redisClient)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewMovementRepository(db)

	// Initialize services
	productService := service.NewProductService(productRepo, movementRepo)
	stockService := service.NewStockService(productRepo, movementRepo, cacheClient, logger)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, logger)
	stockHandler := transport.NewStockHandler(stockService, logger)

	// Register routes
	if redisClient != nil {
		rateLimited := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: 120,
			Window:            time.Minute,
			KeyPrefix:         "ratelimit",
		}, logger)
		router.Group(func(r chi.Router) {
			r.Use(rateLimited)
			productHandler.RegisterRoutes(r)
			stockHandler.RegisterRoutes(r)
		})
	} else {
		productHandler.RegisterRoutes(router)
		stockHandler.RegisterRoutes(router)
	}

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
