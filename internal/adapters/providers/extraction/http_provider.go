package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kweriko/medverify-backend/internal/domain/entities"
	"github.com/kweriko/medverify-backend/internal/domain/providers"
	"github.com/kweriko/medverify-backend/pkg/utils"
)

const defaultExtractionTimeout = 30 * time.Second

// HTTPExtractionProvider talks to the external OCR/NER extraction service.
// It implements both OCRProvider and EntityProvider; the service hosts the
// vision and language models behind one API.
type HTTPExtractionProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPExtractionProvider creates a provider against the extraction service
func NewHTTPExtractionProvider(baseURL string) *HTTPExtractionProvider {
	return NewHTTPExtractionProviderWithClient(baseURL, nil)
}

// NewHTTPExtractionProviderWithClient allows overriding the HTTP client (used for tests)
func NewHTTPExtractionProviderWithClient(baseURL string, httpClient *http.Client) *HTTPExtractionProvider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultExtractionTimeout}
	}
	return &HTTPExtractionProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ExtractText sends the prescription image for OCR
func (p *HTTPExtractionProvider) ExtractText(ctx context.Context, image []byte) (*providers.OCRResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/ocr", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("failed to build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	var payload ocrResponse
	if err := p.do(req, &payload); err != nil {
		return nil, err
	}

	return &providers.OCRResult{
		FullText:   payload.FullText,
		Confidence: payload.Confidence,
		NumSpans:   payload.NumSpans,
	}, nil
}

// ExtractEntities sends recognized text for medication entity extraction
func (p *HTTPExtractionProvider) ExtractEntities(ctx context.Context, text string) (*providers.EntityResult, error) {
	body, err := json.Marshal(entitiesRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entities request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/entities", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build entities request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var payload entitiesResponse
	if err := p.do(req, &payload); err != nil {
		return nil, err
	}

	medications := make([]entities.Medication, 0, len(payload.Medications))
	for _, med := range payload.Medications {
		normalized := utils.NormalizeMedication(med.DrugName, med.Dosage, med.Frequency, med.Route, med.Duration)
		medications = append(medications, entities.Medication{
			DrugName:  normalized.DrugName,
			Dosage:    normalized.Dosage,
			Frequency: normalized.Frequency,
			Route:     normalized.Route,
			Duration:  normalized.Duration,
		})
	}

	return &providers.EntityResult{
		Medications: medications,
		Confidence:  payload.Confidence,
		NumEntities: payload.NumEntities,
	}, nil
}

func (p *HTTPExtractionProvider) do(req *http.Request, out interface{}) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("extraction service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("extraction service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode extraction service response: %w", err)
	}
	return nil
}

type ocrResponse struct {
	FullText   string  `json:"full_text"`
	Confidence float64 `json:"confidence"`
	NumSpans   int     `json:"num_spans"`
}

type entitiesRequest struct {
	Text string `json:"text"`
}

type entitiesResponse struct {
	Medications []struct {
		DrugName  string `json:"drug_name"`
		Dosage    string `json:"dosage"`
		Frequency string `json:"frequency"`
		Route     string `json:"route"`
		Duration  string `json:"duration"`
	} `json:"medications"`
	Confidence  float64 `json:"confidence"`
	NumEntities int     `json:"num_entities"`
}
