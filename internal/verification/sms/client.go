// Package sms delivers verification codes via the SMS provider's HTTP API.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Client sends verification code SMS via the provider's bulk API.
// Implements verification.CodeSender.
type Client struct {
	APIKey     string
	BaseURL    string
	Sender     string
	HTTPClient *http.Client
}

// NewClient returns a client that uses the given API key and optional base URL/sender.
func NewClient(apiKey, baseURL, sender string) *Client {
	if baseURL == "" {
		baseURL = "https://www.smslocal.com/dev/bulkV2"
	}
	return &Client{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// SendCode sends the verification code to the given phone number (route=otp).
// phoneNumber should be digits only (country code + number). Does not log the code.
func (c *Client) SendCode(ctx context.Context, phoneNumber, code string) error {
	if c.APIKey == "" {
		return fmt.Errorf("sms: API key not configured")
	}
	body := map[string]interface{}{
		"route":     "otp",
		"numbers":   phoneNumber,
		"variables": code,
	}
	if c.Sender != "" {
		body["sender_id"] = c.Sender
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}

// NopSender logs codes instead of sending them. Used in development so
// registration and login can be exercised without an SMS account; the config
// loader refuses to run production without a real API key.
type NopSender struct {
	log *zap.Logger
}

// NewNopSender returns a sender that logs codes at debug level.
func NewNopSender(log *zap.Logger) *NopSender {
	return &NopSender{log: log}
}

// SendCode logs the code and reports success.
func (s *NopSender) SendCode(ctx context.Context, phoneNumber, code string) error {
	s.log.Debug("verification code (not sent)",
		zap.String("phone", phoneNumber),
		zap.String("code", code))
	return nil
}
