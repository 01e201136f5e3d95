package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// CommandHandler is called when a user command is received. A non-empty reply is sent
// back to the chat.
type CommandHandler func(ctx context.Context, command string) string

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// parseCommand returns the lowercased command word with any @botname suffix removed,
// or "" when text is not a command.
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd)
}

// StartPolling long-polls getUpdates and dispatches commands from the configured chat.
// Failed polls back off exponentially. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0
	offset := 0

	for {
		updates, err := t.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				t.log.Info().Msg("telegram polling stopped")
				return
			}
			wait := bo.NextBackOff()
			t.log.Warn().Err(err).Dur("retry_in", wait).Msg("polling request failed")
			select {
			case <-ctx.Done():
				t.log.Info().Msg("telegram polling stopped")
				return
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil {
				continue
			}
			if t.ChatID != "" && strconv.FormatInt(u.Message.Chat.ID, 10) != t.ChatID {
				t.log.Warn().Int64("chat", u.Message.Chat.ID).Msg("ignoring command from unknown chat")
				continue
			}
			cmd := parseCommand(u.Message.Text)
			if cmd == "" {
				continue
			}
			t.log.Info().Str("command", cmd).Msg("received command")
			if reply := handler(ctx, cmd); reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					t.log.Error().Err(err).Msg("send reply")
				}
			}
		}
	}
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=30", t.endpoint("getUpdates"), offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create polling request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("getUpdates status %d", resp.StatusCode)
	}

	var result struct {
		OK     bool             `json:"ok"`
		Result []telegramUpdate `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode polling response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates returned ok=false")
	}
	return result.Result, nil
}
