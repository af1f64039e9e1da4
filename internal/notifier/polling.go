package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"TaseTracker/internal/logging"
)

// Attachment is a file sent alongside a command reply.
type Attachment struct {
	Name string
	Data []byte
}

// Reply is the answer to one chat command.
type Reply struct {
	Text        string
	Attachments []Attachment
}

// CommandHandler is called for every text message received from chatID.
type CommandHandler func(ctx context.Context, chatID, command string) Reply

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler, log *logging.Logger) {
	if log == nil {
		log = logging.NewSilent()
	}
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("telegram polling stopped")
			return
		default:
		}

		updates, err := t.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("polling request failed")
			sleepCtx(ctx, 5*time.Second)
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
			text := strings.TrimSpace(update.Message.Text)
			log.Info().Str("chat", chatID).Str("command", text).Msg("received command")

			reply := dispatch(ctx, handler, chatID, text, log)
			if reply.Text != "" {
				if err := t.SendText(ctx, chatID, reply.Text); err != nil {
					log.Error().Err(err).Str("chat", chatID).Msg("send reply")
				}
			}
			for _, a := range reply.Attachments {
				if err := t.SendDocument(ctx, chatID, a.Name, a.Data); err != nil {
					log.Error().Err(err).Str("chat", chatID).Str("file", a.Name).Msg("send attachment")
				}
			}
		}
	}
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=30", t.BaseURL, t.BotToken, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create polling request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read polling response: %w", err)
	}
	var result struct {
		OK     bool             `json:"ok"`
		Result []telegramUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode polling response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram getUpdates: status %d", resp.StatusCode)
	}
	return result.Result, nil
}

// dispatch runs one command. A panicking handler is logged and answered with
// a generic failure so polling keeps going.
func dispatch(ctx context.Context, handler CommandHandler, chatID, text string, log *logging.Logger) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("chat", chatID).Str("command", text).Msg("command handler panicked")
			reply = Reply{Text: "❌ Something went wrong."}
		}
	}()
	return handler(ctx, chatID, text)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
