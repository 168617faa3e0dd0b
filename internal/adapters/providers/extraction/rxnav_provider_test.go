package extraction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
)

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.store[key]; ok {
		return v, nil
	}
	return nil, http.ErrMissingFile
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error { return nil }

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok, nil
}

const rxnavAmoxicillinPayload = `{
	"drugGroup": {
		"conceptGroup": [
			{
				"tty": "SBD",
				"conceptProperties": [
					{"rxcui": "308182", "name": "amoxicillin 250 MG Oral Capsule"},
					{"rxcui": "308191", "name": "amoxicillin 500 MG Oral Capsule"}
				]
			}
		]
	}
}`

func TestRxNavProvider_ValidatesDrugAndDosage(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/drugs.json", r.URL.Path)
		assert.Equal(t, "Amoxicillin", r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(rxnavAmoxicillinPayload))
	}))
	defer server.Close()

	provider := NewRxNavProviderWithOptions(server.URL, nil, 60, server.Client())

	validation, err := provider.ValidatePrescription(context.Background(), "amoxicillin", "500mg", "BID")
	require.NoError(t, err)
	assert.Equal(t, "Amoxicillin", validation.NormalizedName)
	assert.True(t, validation.DrugValid)
	assert.True(t, validation.DosageValid)
	assert.Equal(t, 1, requests)
}

func TestRxNavProvider_UnlistedDosage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rxnavAmoxicillinPayload))
	}))
	defer server.Close()

	provider := NewRxNavProviderWithOptions(server.URL, nil, 60, server.Client())

	validation, err := provider.ValidatePrescription(context.Background(), "amoxicillin", "999mg", "BID")
	require.NoError(t, err)
	assert.True(t, validation.DrugValid)
	assert.False(t, validation.DosageValid)
}

func TestRxNavProvider_UnknownDrug(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"drugGroup":{}}`))
	}))
	defer server.Close()

	provider := NewRxNavProviderWithOptions(server.URL, nil, 60, server.Client())

	validation, err := provider.ValidatePrescription(context.Background(), "notadrug", "10mg", "")
	require.NoError(t, err)
	assert.False(t, validation.DrugValid)
	assert.False(t, validation.DosageValid)
}

func TestRxNavProvider_CachesResponses(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(rxnavAmoxicillinPayload))
	}))
	defer server.Close()

	provider := NewRxNavProviderWithOptions(server.URL, newFakeCache(), 60, server.Client())
	ctx := context.Background()

	first, err := provider.ValidatePrescription(ctx, "amoxicillin", "500mg", "BID")
	require.NoError(t, err)
	second, err := provider.ValidatePrescription(ctx, "amoxicillin", "500mg", "BID")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, requests, "second lookup served from cache")
}

func TestRxNavProvider_RecordsCacheHitAndMissMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rxnavAmoxicillinPayload))
	}))
	defer server.Close()

	reader := sdkmetric.NewManualReader()
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	metrics, err := observability.InitMetrics()
	require.NoError(t, err)

	provider := NewRxNavProviderWithOptions(server.URL, newFakeCache(), 60, server.Client())
	provider.SetMetrics(metrics)
	ctx := context.Background()

	// First lookup misses and fills the cache, second is served from it.
	_, err = provider.ValidatePrescription(ctx, "amoxicillin", "500mg", "BID")
	require.NoError(t, err)
	_, err = provider.ValidatePrescription(ctx, "amoxicillin", "500mg", "BID")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	assert.Equal(t, int64(1), counterTotal(t, &rm, "cache.miss.count"))
	assert.Equal(t, int64(1), counterTotal(t, &rm, "cache.hit.count"))
}

func counterTotal(t *testing.T, rm *metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s was not collected", name)
	return 0
}

func TestRxNavProvider_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewRxNavProviderWithOptions(server.URL, nil, 60, server.Client())

	_, err := provider.ValidatePrescription(context.Background(), "amoxicillin", "500mg", "")
	assert.Error(t, err)
}

func TestRxNavProvider_RequiresDrugName(t *testing.T) {
	provider := NewRxNavProviderWithOptions("http://localhost:1", nil, 60, nil)

	_, err := provider.ValidatePrescription(context.Background(), "  ", "500mg", "")
	assert.Error(t, err)
}
