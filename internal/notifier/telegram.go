// Package notifier delivers optimizer reports to Telegram and accepts chat commands.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Client   *http.Client
	// MaxElapsed bounds retries of a single Send.
	MaxElapsed time.Duration
	log        zerolog.Logger
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string, logger zerolog.Logger) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		BaseURL:  "https://api.telegram.org",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		MaxElapsed: time.Minute,
		log:        logger.With().Str("component", "notifier").Logger(),
	}
}

func (t *TelegramNotifier) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.BotToken, method)
}

func (t *TelegramNotifier) sendOnce(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return backoff.Permanent(err)
		}
		return err
	}
	return nil
}

// Send delivers text to the configured chat, retrying transient failures with
// exponential backoff.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.MaxElapsedTime = t.MaxElapsed
	attempt := 0
	err = backoff.RetryNotify(func() error {
		attempt++
		return t.sendOnce(ctx, body)
	}, backoff.WithContext(strategy, ctx), func(err error, wait time.Duration) {
		t.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("telegram send failed")
	})
	if err != nil {
		return fmt.Errorf("telegram send after %d attempts: %w", attempt, err)
	}
	return nil
}
