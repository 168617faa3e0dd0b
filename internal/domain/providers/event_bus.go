package providers

import (
	"context"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to review
// queue and verification events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ReviewEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ReviewEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for different event streams
const (
	// EventChannelReviewQueue is the channel for all review queue updates
	EventChannelReviewQueue = "reviews:updates"

	// EventChannelVerifications is the channel for intake verification results
	EventChannelVerifications = "verifications:updates"

	// EventChannelExtractionPrefix is the prefix for per-extraction channels
	EventChannelExtractionPrefix = "extraction:"
)

// GetExtractionChannel returns the channel name for a specific extraction
func GetExtractionChannel(extractionID string) string {
	return EventChannelExtractionPrefix + extractionID
}
