package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"StaffBot/entity"
)

// secretTokenHeader carries the secret token Telegram echoes back on
// every webhook call once one is registered.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// VerifyRequest compares Telegram's secret token header against the
// configured one. With no secret configured every request is accepted.
func (a *Adapter) VerifyRequest(header http.Header) error {
	if a.secretToken == "" {
		return nil
	}

	got := header.Get(secretTokenHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.secretToken)) != 1 {
		return errors.New("telegram secret token mismatch")
	}

	return nil
}

// WebhookURL asks Telegram which webhook URL is currently set for the
// bot, empty if none.
func (a *Adapter) WebhookURL(ctx context.Context, creds entity.Credentials) (string, error) {
	b, err := a.client(creds)
	if err != nil {
		return "", err
	}

	info, err := b.GetWebhookInfo(&tgbotapi.GetWebhookInfoOpts{
		RequestOpts: &tgbotapi.RequestOpts{Timeout: a.sendTimeout},
	})
	if err != nil {
		return "", fmt.Errorf("getting webhook info: %w", err)
	}

	return info.Url, nil
}

// RegisterWebhook points the bot's webhook at url. Telegram treats
// setting an already-correct URL as a no-op, so this is idempotent.
func (a *Adapter) RegisterWebhook(ctx context.Context, creds entity.Credentials, url string) error {
	b, err := a.client(creds)
	if err != nil {
		return err
	}

	_, err = b.SetWebhook(url, &tgbotapi.SetWebhookOpts{
		SecretToken: a.secretToken,
		RequestOpts: &tgbotapi.RequestOpts{Timeout: a.sendTimeout},
	})
	if err != nil {
		return fmt.Errorf("setting webhook: %w", err)
	}

	return nil
}

// UnregisterWebhook removes the bot's webhook.
func (a *Adapter) UnregisterWebhook(ctx context.Context, creds entity.Credentials) error {
	b, err := a.client(creds)
	if err != nil {
		return err
	}

	_, err = b.DeleteWebhook(&tgbotapi.DeleteWebhookOpts{
		RequestOpts: &tgbotapi.RequestOpts{Timeout: a.sendTimeout},
	})
	if err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}

	return nil
}
