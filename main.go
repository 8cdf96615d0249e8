package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"damage-analyze-service/analyzer"
	"damage-analyze-service/config"
	"damage-analyze-service/gemini"
	"damage-analyze-service/handlers"
	"damage-analyze-service/llm"
	"damage-analyze-service/metrics"
	"damage-analyze-service/middleware"
	"damage-analyze-service/openai"
	"damage-analyze-service/rabbitmq"
	"damage-analyze-service/stubllm"
	"damage-analyze-service/version"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Info("Starting the damage analyze service...")

	// Select LLM provider
	var client llm.Client
	switch cfg.LLMProvider {
	case "gemini":
		client = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	case "stub":
		client = stubllm.NewClient()
	default:
		client = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	log.Infof("Analyzer LLM provider=%s model=%s", client.SourceName(), cfg.Model())

	// Register Prometheus metrics
	metrics.Register()

	// Initialize RabbitMQ publisher for completed analyses (optional)
	var publisher analyzer.ResultPublisher
	var amqpPublisher *rabbitmq.Publisher
	if cfg.AMQPURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey)
		if err != nil {
			log.Warnf("Failed to initialize RabbitMQ publisher: %v", err)
			log.Warn("Result publishing will be unavailable. Continuing without RabbitMQ...")
		} else {
			amqpPublisher = p
			publisher = p
			log.Infof("RabbitMQ publisher initialized: exchange=%s, routing_key=%s", cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey)
		}
	}

	// Create handlers
	a := analyzer.New(cfg, client, publisher)
	h := handlers.NewHandlers(cfg, a)

	// Setup HTTP server
	router := setupRouter(cfg, h)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if amqpPublisher != nil {
		if err := amqpPublisher.Close(); err != nil {
			log.Errorf("Failed to close RabbitMQ publisher: %v", err)
		}
	}

	log.Info("Server exited")
}

func setupRouter(cfg *config.Config, h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	// Add security headers
	router.Use(middleware.SecurityHeaders())

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get("damage-analyze-service"))
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/analyze", h.Analyze)

	return router
}
