package convlog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"StaffBot/entity"
	"StaffBot/internal/lib/sl"
)

// EventRepository persists conversation events.
type EventRepository interface {
	SaveConversationEvent(ctx context.Context, event entity.ConversationEvent) error
}

// Broadcaster pushes events to live subscribers (the log-viewer
// websocket feed).
type Broadcaster interface {
	BroadcastEvent(eventType string, data any)
}

// Logger is the append-only conversation log: one JSON record per line
// into out, plus optional database persistence and live broadcast.
// Record is fire-and-forget and never blocks the engine's critical path;
// when the buffer is full or a write fails the event is dropped and
// counted, not propagated.
type Logger struct {
	out         io.Writer
	repo        EventRepository
	broadcaster Broadcaster
	log         *slog.Logger

	events  chan entity.ConversationEvent
	dropped atomic.Uint64
	wg      sync.WaitGroup

	// Guards the closed flag: sends happen under RLock, so Close cannot
	// close the channel while a send is in flight.
	mu     sync.RWMutex
	closed bool
}

// New creates a conversation logger writing JSONL records to out. repo
// and broadcaster may be nil.
func New(out io.Writer, repo EventRepository, broadcaster Broadcaster, log *slog.Logger) *Logger {
	l := &Logger{
		out:         out,
		repo:        repo,
		broadcaster: broadcaster,
		log:         log.With(sl.Module("convlog")),
		events:      make(chan entity.ConversationEvent, 1024),
	}

	l.wg.Add(1)
	go l.run()

	return l
}

// Record enqueues an event. Never blocks and never panics: a full
// buffer or a closed logger drops the event and bumps the drop counter.
// Detached webhook dispatches may still be running during shutdown, so
// Record must stay safe after Close.
func (l *Logger) Record(event entity.ConversationEvent) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		l.dropped.Add(1)
		return
	}

	select {
	case l.events <- event:
	default:
		l.dropped.Add(1)
	}
}

// Dropped reports how many events were lost to backpressure or write
// failures.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close drains the queue and stops the writer. Idempotent; Record keeps
// working after Close, counting every event as dropped.
func (l *Logger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.mu.Unlock()

	close(l.events)
	l.wg.Wait()
}

func (l *Logger) run() {
	defer l.wg.Done()

	for event := range l.events {
		l.write(event)
	}
}

func (l *Logger) write(event entity.ConversationEvent) {
	line, err := json.Marshal(event)
	if err != nil {
		l.dropped.Add(1)
		return
	}

	if l.out != nil {
		if _, err := l.out.Write(append(line, '\n')); err != nil {
			l.dropped.Add(1)
			l.log.Warn("conversation log write failed", sl.Err(err))
		}
	}

	if l.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := l.repo.SaveConversationEvent(ctx, event); err != nil {
			l.dropped.Add(1)
			l.log.Warn("conversation event save failed", sl.Err(err))
		}
		cancel()
	}

	if l.broadcaster != nil {
		l.broadcaster.BroadcastEvent("conversation_event", event)
	}
}
