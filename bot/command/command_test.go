package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{"slash command", "/restart", "restart", true},
		{"bare command", "restart", "restart", true},
		{"uppercase", "/RESTART", "restart", true},
		{"surrounding whitespace", "  /status ", "status", true},
		{"multi word never a command", "restart my application", "", false},
		{"empty", "", "", false},
		{"lone slash", "/", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, ok := Normalize(tc.raw)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, cmd)
		})
	}
}

func TestRegistryDispatch(t *testing.T) {
	r := DefaultRegistry()
	d := DialogContext{
		BotID:       "staff-bot",
		Platform:    "telegram",
		ChatID:      "100500",
		CurrentStep: "ask_position",
		Collected:   map[string]any{"name": "Ivan"},
	}

	t.Run("restart claims and resets", func(t *testing.T) {
		res, claimed, err := r.Dispatch(context.Background(), "/restart", d)
		require.NoError(t, err)
		require.True(t, claimed)
		assert.True(t, res.ResetState)
		assert.Equal(t, "Starting over.", res.Message.Text)
	})

	t.Run("status reports step without resetting", func(t *testing.T) {
		res, claimed, err := r.Dispatch(context.Background(), "status", d)
		require.NoError(t, err)
		require.True(t, claimed)
		assert.False(t, res.ResetState)
		assert.Contains(t, res.Message.Text, `"ask_position"`)
		assert.Contains(t, res.Message.Text, "1 answer(s)")
	})

	t.Run("help lists commands", func(t *testing.T) {
		res, claimed, err := r.Dispatch(context.Background(), "/help", d)
		require.NoError(t, err)
		require.True(t, claimed)
		assert.Contains(t, res.Message.Text, "/restart")
	})

	t.Run("ordinary text flows through", func(t *testing.T) {
		_, claimed, err := r.Dispatch(context.Background(), "Ivan Petrov", d)
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("unknown command flows through", func(t *testing.T) {
		_, claimed, err := r.Dispatch(context.Background(), "/frobnicate", d)
		require.NoError(t, err)
		assert.False(t, claimed)
	})
}
