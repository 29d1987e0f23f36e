// Package web is the browser front end. Every page is a route that returns
// its JSON view model; protected routes sit behind RequireRole.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carepoint-rx/carepoint/internal/api"
	"github.com/carepoint-rx/carepoint/internal/config"
	"github.com/carepoint-rx/carepoint/internal/guard"
	"github.com/carepoint-rx/carepoint/internal/session"
)

const redisKeyPrefix = "carepoint:sess:"

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  zerolog.Logger
	client  *api.Client
	kv      session.KV
	redis   *redis.Client
	version string
}

// New creates a new server instance. Sessions live in Redis when a Redis
// URL is configured and in process memory otherwise.
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	client, err := api.New(cfg.API.BaseURL, nil,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(zlog),
		api.WithUserAgent("carepoint-web/"+version),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	s := &Server{
		config:  cfg,
		logger:  zlog,
		client:  client,
		version: version,
	}

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		s.redis = redis.NewClient(opts)
		s.kv = session.NewRedisKV(s.redis, redisKeyPrefix, session.DefaultTTL)
		zlog.Info().Str("addr", opts.Addr).Msg("Using Redis session storage")
	} else {
		s.kv = session.NewMemoryKV(session.WithEntryTTL(session.DefaultTTL))
		zlog.Info().Msg("Using in-memory session storage")
	}

	s.setupRouter()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Web.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)

	pages := s.router.Group("/")
	pages.Use(s.sessionMiddleware())
	{
		pages.GET("/auth/login", s.loginPage)
		pages.POST("/auth/login", s.login)
		pages.POST("/auth/register", s.register)
		pages.POST("/auth/logout", s.logout)

		pages.GET("/products", s.listProducts)
		pages.GET("/products/:id", s.getProduct)

		// Any signed-in role
		anyRole := pages.Group("")
		anyRole.Use(RequireRole(guard.RequireAny))
		{
			anyRole.GET("/profile", s.profile)
			anyRole.GET("/orders/:id", s.getOrder)
			anyRole.GET("/tickets/:id", s.getTicket)
			anyRole.POST("/tickets/:id/replies", s.replyTicket)
		}

		customer := pages.Group("")
		customer.Use(RequireRole(guard.RequireUser))
		{
			customer.GET("/dashboard", s.dashboard)
			customer.GET("/orders", s.myOrders)
			customer.POST("/orders", s.createOrder)
			customer.POST("/orders/:id/cancel", s.cancelOrder)
			customer.GET("/tickets", s.myTickets)
			customer.POST("/tickets", s.createTicket)
			customer.GET("/questionnaire", s.questionnaire)
			customer.POST("/questionnaire", s.submitQuestionnaire)
			customer.GET("/addresses", s.addresses)
			customer.POST("/addresses", s.createAddress)
			customer.DELETE("/addresses/:id", s.deleteAddress)
		}

		admin := pages.Group("/admin")
		admin.Use(RequireRole(guard.RequireAdmin))
		{
			admin.GET("", s.adminDashboard)
			admin.GET("/users", s.adminUsers)
			admin.GET("/users/:id", s.adminUser)
			admin.PUT("/users/:id/role", s.adminUpdateUserRole)
			admin.DELETE("/users/:id", s.adminDeleteUser)
			admin.GET("/orders", s.adminOrders)
			admin.PUT("/orders/:id/status", s.adminUpdateOrderStatus)
			admin.GET("/products", s.adminProducts)
			admin.POST("/products", s.adminCreateProduct)
			admin.PUT("/products/:id", s.adminUpdateProduct)
			admin.DELETE("/products/:id", s.adminDeleteProduct)
			admin.POST("/products/:id/image", s.adminUploadProductImage)
			admin.GET("/tickets", s.adminTickets)
			admin.PUT("/tickets/:id/status", s.adminUpdateTicketStatus)
		}
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "carepoint-web",
		"version":   s.version,
	})
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Web.Addr,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      s.config.API.Timeout + 30*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing Redis client")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
