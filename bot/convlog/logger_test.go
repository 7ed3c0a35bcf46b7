package convlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StaffBot/entity"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(chatID string, dir entity.Direction) entity.ConversationEvent {
	return entity.ConversationEvent{
		BotID:     "staff-bot",
		Platform:  "telegram",
		ChatID:    chatID,
		Direction: dir,
		Payload:   map[string]any{"text": "hello"},
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, nil, nil, discard())

	l.Record(event("1", entity.DirectionIn))
	l.Record(event("2", entity.DirectionOut))
	l.Close()

	scanner := bufio.NewScanner(&buf)
	var lines []entity.ConversationEvent
	for scanner.Scan() {
		var decoded entity.ConversationEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &decoded))
		lines = append(lines, decoded)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].ChatID)
	assert.Equal(t, entity.DirectionIn, lines[0].Direction)
	assert.Equal(t, "2", lines[1].ChatID)
	assert.Equal(t, entity.DirectionOut, lines[1].Direction)
	assert.Zero(t, l.Dropped())
}

type memEventRepo struct {
	mu     sync.Mutex
	events []entity.ConversationEvent
	err    error
}

func (r *memEventRepo) SaveConversationEvent(_ context.Context, event entity.ConversationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

type memBroadcaster struct {
	mu    sync.Mutex
	types []string
}

func (b *memBroadcaster) BroadcastEvent(eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.types = append(b.types, eventType)
}

func TestLoggerPersistsAndBroadcasts(t *testing.T) {
	repo := &memEventRepo{}
	hub := &memBroadcaster{}
	l := New(io.Discard, repo, hub, discard())

	l.Record(event("1", entity.DirectionIn))
	l.Close()

	require.Len(t, repo.events, 1)
	assert.Equal(t, "staff-bot", repo.events[0].BotID)
	assert.Equal(t, []string{"conversation_event"}, hub.types)
}

func TestLoggerCountsWriteFailures(t *testing.T) {
	repo := &memEventRepo{err: errors.New("mongo down")}
	l := New(io.Discard, repo, nil, discard())

	l.Record(event("1", entity.DirectionIn))
	l.Close()

	assert.Equal(t, uint64(1), l.Dropped())
}

func TestLoggerRecordAfterClose(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, nil, nil, discard())

	l.Record(event("1", entity.DirectionIn))
	l.Close()

	// Detached dispatches can outlive shutdown; late records must be
	// dropped and counted, never panic.
	l.Record(event("2", entity.DirectionOut))
	l.Record(event("3", entity.DirectionOut))

	assert.Equal(t, uint64(2), l.Dropped())
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestLoggerCloseIsIdempotent(t *testing.T) {
	l := New(io.Discard, nil, nil, discard())

	l.Close()
	assert.NotPanics(t, l.Close)
}

// blockingWriter stalls the writer goroutine until released so the queue
// can be filled deterministically.
type blockingWriter struct {
	release chan struct{}
	once    sync.Once
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

func TestLoggerNeverBlocksWhenQueueIsFull(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	l := New(w, nil, nil, discard())

	// One event is stuck in the writer, 1024 fill the buffer, the rest
	// must be dropped without blocking the caller.
	const extra = 10
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1+1024+extra; i++ {
			l.Record(event("1", entity.DirectionIn))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full queue")
	}

	assert.GreaterOrEqual(t, l.Dropped(), uint64(1))

	close(w.release)
	l.Close()
}
