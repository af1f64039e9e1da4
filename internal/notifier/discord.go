package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DiscordNotifier posts alerts to a Discord webhook.
type DiscordNotifier struct {
	WebhookURL string
	Client     *http.Client
	now        func() time.Time
}

func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

// Send posts an embed; recipient is ignored since the webhook fixes the channel.
func (d *DiscordNotifier) Send(ctx context.Context, subject, body, _ string) error {
	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       subject,
				"description": stripHTML(body),
				"color":       0x0038b8,
				"footer": map[string]string{
					"text": "TaseTracker price alert",
				},
				"timestamp": d.now().Format(time.RFC3339),
			},
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return deliveryError(d.Name(), err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.WebhookURL, bytes.NewReader(data))
	if err != nil {
		return deliveryError(d.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return deliveryError(d.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return deliveryError(d.Name(), fmt.Errorf("discord returned status: %d", resp.StatusCode))
	}
	return nil
}
