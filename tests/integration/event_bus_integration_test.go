//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kweriko/medverify-backend/internal/adapters/events"
	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
)

func waitForReviewEvent(t *testing.T, ch <-chan *entities.ReviewEvent) *entities.ReviewEvent {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
		return nil
	}
}

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.EventChannelReviewQueue
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewReviewEvent("rx_fanout", entities.ReviewEventTypeQueued, 0.42)

	err = eventBus.Publish(context.Background(), channel, event)
	require.NoError(t, err)

	received1 := waitForReviewEvent(t, sub1)
	received2 := waitForReviewEvent(t, sub2)

	assert.Equal(t, event.ExtractionID, received1.ExtractionID)
	assert.Equal(t, event.ExtractionID, received2.ExtractionID)
	assert.Equal(t, entities.ReviewEventTypeQueued, received1.EventType)
	assert.InDelta(t, 0.42, received1.OverallConfidence, 1e-9)
}

func TestRedisEventBusPerExtractionChannelIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := eventBus.Subscribe(ctx, providers.GetExtractionChannel("rx_scoped"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	// An event on another extraction's channel must not leak over.
	other := entities.NewReviewEvent("rx_other", entities.ReviewEventTypeApproved, 0.9)
	require.NoError(t, eventBus.Publish(context.Background(), providers.GetExtractionChannel("rx_other"), other))

	scoped := entities.NewReviewEvent("rx_scoped", entities.ReviewEventTypeApproved, 0.8)
	require.NoError(t, eventBus.Publish(context.Background(), providers.GetExtractionChannel("rx_scoped"), scoped))

	received := waitForReviewEvent(t, sub)
	assert.Equal(t, "rx_scoped", received.ExtractionID)
}
