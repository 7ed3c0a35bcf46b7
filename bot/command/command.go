package command

import (
	"context"
	"strings"

	"StaffBot/entity"
)

// DialogContext is the read-only view of a dialog that command handlers
// receive. Handlers must not mutate dialog state; the restart handler
// signals a reset through Result instead of touching state itself.
type DialogContext struct {
	BotID       string
	Platform    string
	ChatID      string
	CurrentStep string
	Collected   map[string]any
}

// Result is what a claimed command produces. ResetState is honored only
// for the restart command: the engine moves the dialog back to the start
// step and clears collected data.
type Result struct {
	Message    entity.BotMessage
	ResetState bool
}

// Handler is one out-of-flow command.
type Handler interface {
	// CanHandle reports whether this handler claims the normalized
	// command token.
	CanHandle(cmd string) bool

	// Handle executes the command against a dialog context.
	Handle(ctx context.Context, d DialogContext) (Result, error)
}

// Registry dispatches commands to handlers, first match in registration
// order. Commands are case-insensitive and recognized both as /command
// and bare command tokens.
type Registry struct {
	handlers []Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	return &Registry{handlers: handlers}
}

// DefaultRegistry wires the standard command set.
func DefaultRegistry() *Registry {
	return NewRegistry(
		HelpHandler{},
		StatusHandler{},
		RestartHandler{},
	)
}

// Dispatch offers the raw inbound text to the handlers. The boolean
// reports whether any handler claimed it; unclaimed text flows on to
// normal step processing.
func (r *Registry) Dispatch(ctx context.Context, rawText string, d DialogContext) (Result, bool, error) {
	cmd, ok := Normalize(rawText)
	if !ok {
		return Result{}, false, nil
	}

	for _, h := range r.handlers {
		if h.CanHandle(cmd) {
			res, err := h.Handle(ctx, d)
			return res, true, err
		}
	}

	return Result{}, false, nil
}

// Normalize extracts a single lowercase command token from raw text.
// Multi-word messages are never commands.
func Normalize(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" || strings.ContainsAny(text, " \t\n") {
		return "", false
	}
	text = strings.TrimPrefix(text, "/")
	if text == "" {
		return "", false
	}
	return strings.ToLower(text), true
}
