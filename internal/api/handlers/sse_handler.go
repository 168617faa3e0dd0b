package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
)

// heartbeatInterval keeps idle SSE connections from being reaped by proxies
const heartbeatInterval = 30 * time.Second

// SSEHandler handles Server-Sent Events for real-time review queue updates
type SSEHandler struct {
	eventBus providers.EventBus
	clients  map[string]map[chan *entities.ReviewEvent]bool // channel -> clients
	mu       sync.RWMutex
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus) *SSEHandler {
	return &SSEHandler{
		eventBus: eventBus,
		clients:  make(map[string]map[chan *entities.ReviewEvent]bool),
	}
}

// StreamReviewUpdates handles SSE connections for review queue updates
// GET /api/stream/reviews
func (h *SSEHandler) StreamReviewUpdates(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelReviewQueue, map[string]interface{}{
		"channel":   "reviews",
		"timestamp": time.Now(),
	})
}

// StreamVerificationUpdates handles SSE connections for intake verification
// results
// GET /api/stream/verifications
func (h *SSEHandler) StreamVerificationUpdates(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelVerifications, map[string]interface{}{
		"channel":   "verifications",
		"timestamp": time.Now(),
	})
}

// StreamExtractionUpdates handles SSE connections for one extraction's
// review lifecycle
// GET /api/stream/extractions/{id}
func (h *SSEHandler) StreamExtractionUpdates(w http.ResponseWriter, r *http.Request) {
	extractionID := r.PathValue("id")
	if extractionID == "" {
		respondWithError(w, http.StatusBadRequest, "extraction ID is required")
		return
	}

	h.stream(w, r, providers.GetExtractionChannel(extractionID), map[string]interface{}{
		"extraction_id": extractionID,
		"timestamp":     time.Now(),
	})
}

// stream subscribes the client to a bus channel and forwards events until the
// client disconnects.
func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, channel string, connected map[string]interface{}) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	logger := observability.LoggerFromContext(r.Context())

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	clientChan := make(chan *entities.ReviewEvent, 10)
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to channel")
		return
	}

	h.sendEvent(w, "connected", connected)
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan)

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("channel", channel).Msg("client disconnected from stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.EventType), event)
			flusher.Flush()
		}
	}
}

// forwardEvents forwards events from the event bus to a client channel
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.ReviewEvent, clientChan chan<- *entities.ReviewEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
				// Client channel full, skip event
			}
		}
	}
}

// registerClient registers a client for a channel
func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.ReviewEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.ReviewEvent]bool)
	}
	h.clients[channel][clientChan] = true
}

// unregisterClient unregisters a client from a channel
func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.ReviewEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		observability.GetLogger().Error().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// ClientCount returns the number of connected clients for debugging
func (h *SSEHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
