package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/PaulSonOfLars/gotgbot/v2"

	"StaffBot/bot/platform"
	"StaffBot/entity"
	"StaffBot/internal/errs"
	"StaffBot/internal/lib/sl"
)

const (
	// PlatformName identifies Telegram in routes and storage keys.
	PlatformName = "telegram"

	// Telegram caps callback_data at 64 bytes.
	maxCallbackData = 64
)

// Adapter implements platform.Adapter for Telegram on top of gotgbot.
type Adapter struct {
	log         *slog.Logger
	secretToken string
	sendTimeout time.Duration

	mu      sync.Mutex
	clients map[string]*tgbotapi.Bot
}

// NewAdapter creates a Telegram adapter. secretToken, when set, is
// attached to webhook registrations so inbound calls can be verified.
func NewAdapter(log *slog.Logger, secretToken string, sendTimeout time.Duration) *Adapter {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	return &Adapter{
		log:         log.With(sl.Module("platform.telegram")),
		secretToken: secretToken,
		sendTimeout: sendTimeout,
		clients:     make(map[string]*tgbotapi.Bot),
	}
}

func (a *Adapter) Name() string { return PlatformName }

func (a *Adapter) MaxButtonValue() int { return maxCallbackData }

// client returns a cached Bot API client for the credentials. Token
// verification is disabled so construction never touches the network.
func (a *Adapter) client(creds entity.Credentials) (*tgbotapi.Bot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if b, ok := a.clients[creds.Token]; ok {
		return b, nil
	}

	b, err := tgbotapi.NewBot(creds.Token, &tgbotapi.BotOpts{
		DisableTokenCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating api instance: %w", err)
	}

	a.clients[creds.Token] = b
	return b, nil
}

// Normalize converts a raw Telegram update into the neutral message
// model. Unsupported update kinds yield an empty message with no chat id.
func (a *Adapter) Normalize(raw []byte) (entity.Message, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(raw, &update); err != nil {
		return entity.Message{}, fmt.Errorf("decoding telegram update: %w", err)
	}

	msg := entity.Message{Platform: PlatformName}

	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		msg.UserID = strconv.FormatInt(cq.From.Id, 10)
		msg.CallbackData = cq.Data
		if cq.Message != nil {
			msg.ChatID = strconv.FormatInt(cq.Message.GetChat().Id, 10)
		}

	case update.Message != nil:
		m := update.Message
		msg.ChatID = strconv.FormatInt(m.Chat.Id, 10)
		if m.From != nil {
			msg.UserID = strconv.FormatInt(m.From.Id, 10)
		}
		msg.Text = m.Text
		if msg.Text == "" {
			msg.Text = m.Caption
		}
		if len(m.Photo) > 0 {
			// The last photo size is the largest.
			msg.FileID = m.Photo[len(m.Photo)-1].FileId
		}
		if m.Document != nil {
			msg.FileID = m.Document.FileId
		}
		if m.Location != nil {
			msg.Location = &entity.Location{
				Latitude:  m.Location.Latitude,
				Longitude: m.Location.Longitude,
			}
		}
		if m.Contact != nil {
			msg.Phone = m.Contact.PhoneNumber
		}
	}

	return msg, nil
}

// Render splits an outbound message into Telegram send units. A single
// media item carries the text as caption and the inline keyboard; a
// media group cannot carry buttons, so they trail in a separate text
// message.
func (a *Adapter) Render(msg entity.BotMessage) []platform.Payload {
	switch {
	case msg.HasMediaGroup():
		payloads := []platform.Payload{platform.MediaGroupPayload{Items: msg.Media}}
		if msg.Text != "" || len(msg.Buttons) > 0 {
			text := msg.Text
			if text == "" {
				text = "Choose an option:"
			}
			payloads = append(payloads, platform.TextPayload{
				Text:    text,
				Buttons: msg.Buttons,
			})
		}
		return payloads

	case len(msg.Media) == 1:
		return []platform.Payload{platform.MediaPayload{
			Item:    msg.Media[0],
			Caption: msg.Text,
			Buttons: msg.Buttons,
		}}

	default:
		return []platform.Payload{platform.TextPayload{
			Text:    msg.Text,
			Buttons: msg.Buttons,
		}}
	}
}

// Send delivers one payload. Failures are wrapped as retryable delivery
// errors; the engine owns the retry policy.
func (a *Adapter) Send(ctx context.Context, creds entity.Credentials, chatID string, p platform.Payload) error {
	b, err := a.client(creds)
	if err != nil {
		return err
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}

	reqOpts := &tgbotapi.RequestOpts{Timeout: a.sendTimeout}

	switch payload := p.(type) {
	case platform.TextPayload:
		_, err = b.SendMessage(id, payload.Text, &tgbotapi.SendMessageOpts{
			ParseMode:   "HTML",
			ReplyMarkup: inlineKeyboard(payload.Buttons),
			RequestOpts: reqOpts,
		})

	case platform.MediaPayload:
		err = a.sendMedia(b, id, payload, reqOpts)

	case platform.MediaGroupPayload:
		media := make([]tgbotapi.InputMedia, len(payload.Items))
		for i, item := range payload.Items {
			media[i] = inputMedia(item)
		}
		_, err = b.SendMediaGroup(id, media, &tgbotapi.SendMediaGroupOpts{
			RequestOpts: reqOpts,
		})

	default:
		return fmt.Errorf("unsupported payload type %T", p)
	}

	if err != nil {
		a.log.Warn("telegram send failed",
			slog.String("chat_id", chatID),
			sl.Err(err),
		)
		return errs.Delivery(err)
	}

	return nil
}

func (a *Adapter) sendMedia(b *tgbotapi.Bot, chatID int64, p platform.MediaPayload, reqOpts *tgbotapi.RequestOpts) error {
	markup := inlineKeyboard(p.Buttons)
	ref := tgbotapi.InputFileByURL(p.Item.Ref)

	var err error
	switch p.Item.Type {
	case entity.MediaPhoto:
		_, err = b.SendPhoto(chatID, ref, &tgbotapi.SendPhotoOpts{
			Caption:     p.Caption,
			ReplyMarkup: markup,
			RequestOpts: reqOpts,
		})
	case entity.MediaVideo:
		_, err = b.SendVideo(chatID, ref, &tgbotapi.SendVideoOpts{
			Caption:     p.Caption,
			ReplyMarkup: markup,
			RequestOpts: reqOpts,
		})
	default:
		_, err = b.SendDocument(chatID, ref, &tgbotapi.SendDocumentOpts{
			Caption:     p.Caption,
			ReplyMarkup: markup,
			RequestOpts: reqOpts,
		})
	}
	return err
}

func inputMedia(item entity.MediaItem) tgbotapi.InputMedia {
	switch item.Type {
	case entity.MediaVideo:
		return tgbotapi.InputMediaVideo{
			Media:   tgbotapi.InputFileByURL(item.Ref),
			Caption: item.Caption,
		}
	case entity.MediaDocument:
		return tgbotapi.InputMediaDocument{
			Media:   tgbotapi.InputFileByURL(item.Ref),
			Caption: item.Caption,
		}
	default:
		return tgbotapi.InputMediaPhoto{
			Media:   tgbotapi.InputFileByURL(item.Ref),
			Caption: item.Caption,
		}
	}
}

func inlineKeyboard(rows [][]entity.Button) tgbotapi.ReplyMarkup {
	if len(rows) == 0 {
		return nil
	}

	keyboard := make([][]tgbotapi.InlineKeyboardButton, len(rows))
	for i, row := range rows {
		keyboard[i] = make([]tgbotapi.InlineKeyboardButton, len(row))
		for j, btn := range row {
			keyboard[i][j] = tgbotapi.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.Value,
			}
		}
	}

	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
