package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
	"github.com/kweriko/medverify-backend/internal/infrastructure/observability"
	"github.com/kweriko/medverify-backend/pkg/utils"
)

const (
	defaultRxNavBaseURL       = "https://rxnav.nlm.nih.gov/REST"
	defaultValidationCacheTTL = 60 * 60 * 24
	defaultRxNavTimeout       = 8 * time.Second

	// rxnavCacheLabel keeps the cache metric attribute low-cardinality; the
	// per-drug key hash would explode the series count.
	rxnavCacheLabel = "rxnav"
)

// RxNavProvider validates drugs and dosages against the NLM RxNav API.
// Responses are cached; the drug vocabulary changes rarely.
type RxNavProvider struct {
	baseURL    string
	httpClient *http.Client
	cache      providers.CacheProvider
	cacheTTL   int
	metrics    *observability.Metrics
}

// NewRxNavProvider creates a new RxNav drug validation provider
func NewRxNavProvider(baseURL string, cache providers.CacheProvider, cacheTTLSeconds int) *RxNavProvider {
	return NewRxNavProviderWithOptions(baseURL, cache, cacheTTLSeconds, nil)
}

// NewRxNavProviderWithOptions allows overriding the HTTP client (used for tests)
func NewRxNavProviderWithOptions(baseURL string, cache providers.CacheProvider, cacheTTLSeconds int, httpClient *http.Client) *RxNavProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultRxNavBaseURL
	}
	if cacheTTLSeconds <= 0 {
		cacheTTLSeconds = defaultValidationCacheTTL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRxNavTimeout}
	}
	return &RxNavProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		cache:      cache,
		cacheTTL:   cacheTTLSeconds,
	}
}

// SetMetrics attaches OTEL metrics recording. Optional.
func (p *RxNavProvider) SetMetrics(m *observability.Metrics) {
	p.metrics = m
}

// ValidatePrescription checks the drug name against RxNav and the dosage
// against the marketed strengths RxNav lists for it.
func (p *RxNavProvider) ValidatePrescription(ctx context.Context, drugName, dosage, frequency string) (*entities.DrugValidation, error) {
	normalized := utils.NormalizeDrugName(drugName)
	if normalized == "" {
		return nil, fmt.Errorf("drug name is required")
	}

	cacheKey := "rxnav:v1:" + hashKey(strings.ToLower(normalized)+"|"+strings.ToLower(utils.FormatDosage(dosage)))
	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var validation entities.DrugValidation
			if err := json.Unmarshal(cached, &validation); err == nil {
				observability.RecordCacheHit(ctx, p.metrics, rxnavCacheLabel)
				return &validation, nil
			}
		}
		observability.RecordCacheMiss(ctx, p.metrics, rxnavCacheLabel)
	}

	resp, err := p.fetchDrugs(ctx, normalized)
	if err != nil {
		return nil, err
	}

	validation := &entities.DrugValidation{
		DrugName:       drugName,
		NormalizedName: normalized,
	}

	concepts := resp.conceptNames()
	if len(concepts) > 0 {
		validation.DrugValid = true
		validation.DosageValid = dosageListedIn(concepts, dosage)
	}

	if p.cache != nil {
		if payload, err := json.Marshal(validation); err == nil {
			_ = p.cache.Set(ctx, cacheKey, payload, p.cacheTTL)
		}
	}

	return validation, nil
}

func (p *RxNavProvider) fetchDrugs(ctx context.Context, drugName string) (*rxnavDrugsResponse, error) {
	params := url.Values{}
	params.Set("name", drugName)

	reqURL := fmt.Sprintf("%s/drugs.json?%s", p.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rxnav request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rxnav request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rxnav request returned status %d", resp.StatusCode)
	}

	var payload rxnavDrugsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode rxnav response: %w", err)
	}
	return &payload, nil
}

var dosageValueUnit = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|mcg|g|ml|iu|units?)`)

// dosageListedIn reports whether any RxNav concept name carries the same
// strength, e.g. "500mg" matches "amoxicillin 500 MG Oral Capsule".
func dosageListedIn(conceptNames []string, dosage string) bool {
	matches := dosageValueUnit.FindStringSubmatch(dosage)
	if matches == nil {
		return false
	}
	value, unit := matches[1], strings.ToLower(matches[2])

	for _, name := range conceptNames {
		for _, m := range dosageValueUnit.FindAllStringSubmatch(name, -1) {
			if m[1] == value && strings.ToLower(m[2]) == unit {
				return true
			}
		}
	}
	return false
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type rxnavDrugsResponse struct {
	DrugGroup struct {
		ConceptGroup []struct {
			TTY               string `json:"tty"`
			ConceptProperties []struct {
				RxCUI string `json:"rxcui"`
				Name  string `json:"name"`
			} `json:"conceptProperties"`
		} `json:"conceptGroup"`
	} `json:"drugGroup"`
}

func (r *rxnavDrugsResponse) conceptNames() []string {
	var names []string
	for _, group := range r.DrugGroup.ConceptGroup {
		for _, prop := range group.ConceptProperties {
			names = append(names, prop.Name)
		}
	}
	return names
}
