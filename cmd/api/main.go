package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kweriko/medverify-backend/internal/adapters/cache"
	"github.com/kweriko/medverify-backend/internal/adapters/database"
	"github.com/kweriko/medverify-backend/internal/adapters/events"
	"github.com/kweriko/medverify-backend/internal/adapters/memory"
	"github.com/kweriko/medverify-backend/internal/adapters/providers/extraction"
	"github.com/kweriko/medverify-backend/internal/adapters/search"
	"github.com/kweriko/medverify-backend/internal/api/handlers"
	"github.com/kweriko/medverify-backend/internal/api/routes"
	"github.com/kweriko/medverify-backend/internal/application/services"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
	"github.com/kweriko/medverify-backend/internal/domain/repositories"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/postgres"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/redis"
	"github.com/kweriko/medverify-backend/internal/infrastructure/clients/typesense"
	"github.com/kweriko/medverify-backend/internal/infrastructure/notifications"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
	"github.com/kweriko/medverify-backend/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, os.Getenv("APP_ENV"))

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Printf("Warning: Failed to set up OpenTelemetry: %v", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down OpenTelemetry: %v", err)
				}
			}()
			log.Println("OpenTelemetry initialized successfully")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	// Initialize database client. Without PostgreSQL the service falls back
	// to in-memory stores, which is fine for local development.
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Printf("Warning: Failed to initialize PostgreSQL client: %v", err)
		pgClient = nil
	} else {
		defer pgClient.Close()
		log.Println("PostgreSQL client initialized successfully")
	}

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize Typesense client
	typesenseClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		log.Printf("Warning: Failed to initialize Typesense client: %v", err)
		typesenseClient = nil
	} else {
		log.Println("Typesense client initialized successfully")
	}

	// Initialize repositories
	var reviewRepo repositories.ReviewRepository
	var verificationRepo repositories.VerificationRepository
	if pgClient != nil {
		reviewRepo = database.NewReviewAdapter(pgClient)
		verificationRepo = database.NewVerificationAdapter(pgClient)
	} else {
		reviewRepo = memory.NewReviewStore()
		verificationRepo = memory.NewVerificationStore()
		log.Println("Running with in-memory stores (PostgreSQL unavailable)")
	}

	var searchRepo repositories.ExtractionSearchRepository
	if typesenseClient != nil {
		if err := typesenseClient.InitSchema(context.Background()); err != nil {
			log.Printf("Warning: Failed to init Typesense schema: %v", err)
		}
		searchRepo = search.NewTypesenseAdapter(typesenseClient)
	}

	var cacheProvider providers.CacheProvider
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Initialize event bus for real-time updates
	var eventBus providers.EventBus
	if redisClient != nil {
		eventBus = events.NewRedisEventBus(redisClient)
		log.Println("Event bus initialized successfully")
	} else {
		log.Println("Event bus disabled (Redis not available)")
	}

	// Initialize extraction providers
	var ocrProvider providers.OCRProvider
	var nerProvider providers.EntityProvider
	switch cfg.Extraction.Provider {
	case "http":
		httpProvider := extraction.NewHTTPExtractionProvider(cfg.Extraction.ServiceURL)
		ocrProvider = httpProvider
		nerProvider = httpProvider
		log.Printf("Extraction service configured at %s", cfg.Extraction.ServiceURL)
	default:
		ocrProvider = extraction.NewMockOCRProvider()
		nerProvider = extraction.NewMockEntityProvider()
		log.Println("Warning: using mock extraction providers")
	}

	validationProvider := extraction.NewRxNavProvider(
		cfg.Extraction.RxNavURL,
		cacheProvider,
		cfg.Extraction.ValidationCacheTTLSeconds,
	)
	validationProvider.SetMetrics(metrics)

	// Initialize services
	scorer, err := services.NewConfidenceScorer(cfg.Scoring, reviewRepo)
	if err != nil {
		log.Fatalf("Failed to build confidence scorer: %v", err)
	}
	if eventBus != nil {
		scorer.SetEventBus(eventBus)
	}
	scorer.SetMetrics(metrics)

	digitizer := services.NewDigitizerService(ocrProvider, nerProvider, validationProvider, scorer)
	digitizer.SetMetrics(metrics)

	engine, err := services.NewVerificationEngine(cfg.Fusion)
	if err != nil {
		log.Fatalf("Failed to build verification engine: %v", err)
	}

	verificationService := services.NewVerificationService(engine, verificationRepo)
	if eventBus != nil {
		verificationService.SetEventBus(eventBus)
	}
	verificationService.SetMetrics(metrics)

	// Caregiver alerting is feature-flagged; rejected and uncertain intakes
	// notify the configured caregiver over WhatsApp.
	flags := services.NewFeatureFlags()
	var alertService *services.CaregiverAlertService
	if flags.CaregiverAlertsEnabled() {
		sender, err := notifications.NewWhatsAppCloudSender()
		if err != nil {
			log.Printf("Warning: caregiver alerts disabled: %v", err)
		} else {
			var alertRepo repositories.AlertRepository
			if pgClient != nil {
				alertRepo = database.NewAlertAdapter(pgClient)
			} else {
				alertRepo = memory.NewAlertStore()
			}
			alertService = services.NewCaregiverAlertService(sender, alertRepo, cfg.Alerts.CaregiverPhone)
			alertService.SetShadowMode(flags.AlertShadowModeEnabled())
			verificationService.SetAlerts(alertService)
			log.Println("Caregiver alerts enabled")
		}
	}

	// Initialize handlers
	extractionHandler := handlers.NewExtractionHandler(digitizer, reviewRepo, searchRepo)
	reviewHandler := handlers.NewReviewHandler(scorer)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	if alertService != nil {
		verificationHandler.SetAlerts(alertService)
	}

	var sseHandler *handlers.SSEHandler
	if eventBus != nil {
		sseHandler = handlers.NewSSEHandler(eventBus)
	}

	// Set up router
	router := routes.NewRouter(
		extractionHandler,
		reviewHandler,
		verificationHandler,
		sseHandler,
		metrics,
	)

	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No write timeout; SSE streams are served from this process
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	// Close event bus
	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Printf("Error closing event bus: %v", err)
		}
	}

	log.Println("Server stopped")
}
