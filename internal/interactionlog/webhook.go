package interactionlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// WebhookSink posts entries as JSON to a tracking endpoint.
type WebhookSink struct {
	url    string
	apiKey string
	client *http.Client
}

// NewWebhookSink constructs a webhook sink.
func NewWebhookSink(url, apiKey string) (*WebhookSink, error) {
	if url == "" {
		return nil, errors.New("interactionlog: empty webhook url")
	}
	return &WebhookSink{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Name implements Sink.
func (s *WebhookSink) Name() string { return "webhook" }

// Write implements Sink.
func (s *WebhookSink) Write(ctx context.Context, entry Entry) error {
	if s == nil || s.url == "" {
		return fmt.Errorf("%w: webhook sink not configured", ErrLogFailure)
	}
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogFailure, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLogFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: webhook http %d", ErrLogFailure, resp.StatusCode)
	}
	return nil
}
