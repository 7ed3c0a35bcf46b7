package platform

import (
	"context"
	"net/http"

	"StaffBot/entity"
	"StaffBot/internal/errs"
)

// Payload is one platform-bound send unit produced by Render. Concrete
// payload types below are platform-neutral; adapters translate them to
// wire calls at send time.
type Payload any

// TextPayload is a text message with optional inline buttons.
type TextPayload struct {
	Text    string
	Buttons [][]entity.Button
}

// MediaPayload is a single media item with a caption and optional inline
// buttons.
type MediaPayload struct {
	Item    entity.MediaItem
	Caption string
	Buttons [][]entity.Button
}

// MediaGroupPayload is an album of media items. Interactive controls
// cannot be attached to grouped media, so buttons never appear here;
// Render emits a trailing TextPayload instead.
type MediaGroupPayload struct {
	Items []entity.MediaItem
}

// Adapter translates between one messaging platform's wire format and
// the neutral message model, and owns the platform's webhook API.
type Adapter interface {
	// Name is the platform identifier used in routes and storage keys.
	Name() string

	// MaxButtonValue is the platform's callback-data size limit in
	// bytes; enforced at scenario load, not at send time.
	MaxButtonValue() int

	// VerifyRequest checks the platform's authenticity marker on an
	// inbound webhook request (for Telegram, the secret token header).
	// Adapters configured without a marker accept every request.
	VerifyRequest(header http.Header) error

	// Normalize converts a raw webhook payload into a neutral Message.
	Normalize(raw []byte) (entity.Message, error)

	// Render splits an outbound message into ordered send units.
	Render(msg entity.BotMessage) []Payload

	// Send delivers one payload to a chat.
	Send(ctx context.Context, creds entity.Credentials, chatID string, p Payload) error

	// WebhookURL returns the webhook URL currently registered with the
	// platform, empty if unset.
	WebhookURL(ctx context.Context, creds entity.Credentials) (string, error)

	// RegisterWebhook points the platform at url. Idempotent:
	// re-registering an already-correct webhook is a no-op.
	RegisterWebhook(ctx context.Context, creds entity.Credentials, url string) error

	// UnregisterWebhook removes the registration.
	UnregisterWebhook(ctx context.Context, creds entity.Credentials) error
}

// Registry holds the configured platform adapters.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// Get returns the adapter for a platform name.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, errs.NotFound("unknown platform %q", name)
	}
	return a, nil
}

// Names lists the registered platform names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
