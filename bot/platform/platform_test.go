package platform

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StaffBot/entity"
	"StaffBot/internal/errs"
)

type stubAdapter struct {
	name string
}

func (s *stubAdapter) Name() string                    { return s.name }
func (s *stubAdapter) MaxButtonValue() int             { return 64 }
func (s *stubAdapter) VerifyRequest(http.Header) error { return nil }
func (s *stubAdapter) Normalize([]byte) (entity.Message, error) {
	return entity.Message{}, nil
}
func (s *stubAdapter) Render(entity.BotMessage) []Payload { return nil }
func (s *stubAdapter) Send(context.Context, entity.Credentials, string, Payload) error {
	return nil
}
func (s *stubAdapter) WebhookURL(context.Context, entity.Credentials) (string, error) {
	return "", nil
}
func (s *stubAdapter) RegisterWebhook(context.Context, entity.Credentials, string) error {
	return nil
}
func (s *stubAdapter) UnregisterWebhook(context.Context, entity.Credentials) error {
	return nil
}

func TestRegistry(t *testing.T) {
	telegram := &stubAdapter{name: "telegram"}
	whatsapp := &stubAdapter{name: "whatsapp"}
	reg := NewRegistry(telegram, whatsapp)

	t.Run("get returns registered adapter", func(t *testing.T) {
		got, err := reg.Get("telegram")
		require.NoError(t, err)
		assert.Same(t, telegram, got)
	})

	t.Run("unknown platform is not found", func(t *testing.T) {
		_, err := reg.Get("viber")
		require.Error(t, err)
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("names lists every registered platform", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"telegram", "whatsapp"}, reg.Names())
	})
}
