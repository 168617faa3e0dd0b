package routes

import (
	"net/http"

	"github.com/kweriko/medverify-backend/internal/api/handlers"
	"github.com/kweriko/medverify-backend/internal/api/middleware"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	extractionHandler   *handlers.ExtractionHandler
	reviewHandler       *handlers.ReviewHandler
	verificationHandler *handlers.VerificationHandler
	sseHandler          *handlers.SSEHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	extractionHandler *handlers.ExtractionHandler,
	reviewHandler *handlers.ReviewHandler,
	verificationHandler *handlers.VerificationHandler,
	sseHandler *handlers.SSEHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		extractionHandler:   extractionHandler,
		reviewHandler:       reviewHandler,
		verificationHandler: verificationHandler,
		sseHandler:          sseHandler,

		metrics: metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Extraction endpoints
	r.mux.HandleFunc("POST /api/extractions", r.extractionHandler.ProcessPrescription)
	r.mux.HandleFunc("POST /api/extractions/batch", r.extractionHandler.ProcessBatch)
	r.mux.HandleFunc("GET /api/extractions/search", r.extractionHandler.SearchExtractions)
	r.mux.HandleFunc("GET /api/extractions/{id}", r.extractionHandler.GetExtraction)

	// Review queue endpoints
	r.mux.HandleFunc("GET /api/reviews/pending", r.reviewHandler.ListPending)
	r.mux.HandleFunc("GET /api/reviews/stats", r.reviewHandler.GetStatistics)
	r.mux.HandleFunc("POST /api/reviews/{id}", r.reviewHandler.Decide)

	// Intake verification endpoints
	r.mux.HandleFunc("POST /api/verifications", r.verificationHandler.VerifyIntake)
	r.mux.HandleFunc("GET /api/verifications/stats", r.verificationHandler.GetStatistics)
	r.mux.HandleFunc("GET /api/verifications/{id}", r.verificationHandler.GetEvent)
	r.mux.HandleFunc("GET /api/verifications/{id}/report", r.verificationHandler.GetReport)
	r.mux.HandleFunc("GET /api/verifications/{id}/alerts", r.verificationHandler.GetAlerts)

	// Real-time streams
	if r.sseHandler != nil {
		r.mux.HandleFunc("GET /api/stream/reviews", r.sseHandler.StreamReviewUpdates)
		r.mux.HandleFunc("GET /api/stream/verifications", r.sseHandler.StreamVerificationUpdates)
		r.mux.HandleFunc("GET /api/stream/extractions/{id}", r.sseHandler.StreamExtractionUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so error responses also get CORS headers.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
