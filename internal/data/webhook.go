package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// WebhookSender posts replies to the configured outbound webhook. The
// channel gateway behind the webhook handles actual message delivery.
type WebhookSender struct {
	url    string
	token  string
	client *http.Client
	log    zerolog.Logger
}

// NewWebhookSender creates a webhook sender. An empty URL makes it a
// log-only sender, useful in development.
func NewWebhookSender(url, token string, log zerolog.Logger) *WebhookSender {
	return &WebhookSender{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// Send delivers one reply.
func (s *WebhookSender) Send(ctx context.Context, customer, text string) error {
	if s.url == "" {
		s.log.Info().Str("customer", customer).Str("text", text).Msg("reply (no webhook configured)")
		return nil
	}
	payload, err := json.Marshal(map[string]string{"cliente": customer, "texto": text})
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("send reply: status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
