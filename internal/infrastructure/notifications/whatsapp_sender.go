package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultGraphAPIBase = "https://graph.facebook.com/v18.0"

// WhatsAppCloudSender delivers caregiver alerts through the WhatsApp
// Business Cloud API.
type WhatsAppCloudSender struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
}

// NewWhatsAppCloudSender reads credentials from WHATSAPP_ACCESS_TOKEN and
// WHATSAPP_PHONE_NUMBER_ID.
func NewWhatsAppCloudSender() (*WhatsAppCloudSender, error) {
	token := os.Getenv("WHATSAPP_ACCESS_TOKEN")
	phoneNumberID := os.Getenv("WHATSAPP_PHONE_NUMBER_ID")

	if token == "" {
		return nil, fmt.Errorf("WHATSAPP_ACCESS_TOKEN is required")
	}
	if phoneNumberID == "" {
		return nil, fmt.Errorf("WHATSAPP_PHONE_NUMBER_ID is required")
	}

	return &WhatsAppCloudSender{
		accessToken:   token,
		phoneNumberID: phoneNumberID,
		baseURL:       defaultGraphAPIBase,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// SendText sends a freeform text message and returns the provider message ID.
func (s *WhatsAppCloudSender) SendText(to, body string) (string, error) {
	msg := textMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textBody{Body: body},
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if result.Error != nil {
			return "", fmt.Errorf("whatsapp API error %d: %s", result.Error.Code, result.Error.Message)
		}
		return "", fmt.Errorf("whatsapp API returned status %d", resp.StatusCode)
	}

	if len(result.Messages) == 0 {
		return "", fmt.Errorf("whatsapp API returned no message ID")
	}
	return result.Messages[0].ID, nil
}
