package scenario

import (
	"context"
	"log/slog"
	"sync"

	"StaffBot/internal/errs"
	"StaffBot/internal/lib/sl"
)

// Repository defines the database operations for published scenarios.
type Repository interface {
	LoadActiveScenario(ctx context.Context, botID string) (*Scenario, error)
}

// Store serves the active scenario per bot. Published versions are
// immutable, so loaded graphs are validated once and cached until the
// bot's active version is swapped.
type Store struct {
	repo           Repository
	resolve        ResolveInput
	maxButtonValue int
	log            *slog.Logger

	mu     sync.RWMutex
	active map[string]*Scenario
}

// NewStore creates a scenario store. resolve and maxButtonValue feed
// load-time validation; see Scenario.Validate.
func NewStore(repo Repository, resolve ResolveInput, maxButtonValue int, log *slog.Logger) *Store {
	return &Store{
		repo:           repo,
		resolve:        resolve,
		maxButtonValue: maxButtonValue,
		log:            log.With(sl.Module("scenario.store")),
		active:         make(map[string]*Scenario),
	}
}

// ActiveForBot returns the active scenario for a bot, loading and
// validating it on first use.
func (s *Store) ActiveForBot(ctx context.Context, botID string) (*Scenario, error) {
	s.mu.RLock()
	cached, ok := s.active[botID]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	loaded, err := s.repo.LoadActiveScenario(ctx, botID)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		return nil, errs.NotFound("no active scenario for bot %s", botID)
	}

	if err := loaded.Validate(s.resolve, s.maxButtonValue); err != nil {
		s.log.Error("active scenario failed validation",
			slog.String("bot_id", botID),
			slog.String("scenario_id", loaded.ID),
			sl.Err(err),
		)
		return nil, err
	}

	s.mu.Lock()
	s.active[botID] = loaded
	s.mu.Unlock()

	s.log.Info("loaded scenario",
		slog.String("bot_id", botID),
		slog.String("scenario_id", loaded.ID),
		slog.String("version", loaded.Version),
	)

	return loaded, nil
}

// Invalidate drops the cached scenario for a bot, forcing a reload on
// the next inbound message. Called when a new version is published.
func (s *Store) Invalidate(botID string) {
	s.mu.Lock()
	delete(s.active, botID)
	s.mu.Unlock()
}

// ValidateForPublish runs the same load-time checks on a candidate
// scenario before it is stored as a new version.
func (s *Store) ValidateForPublish(sc *Scenario) error {
	return sc.Validate(s.resolve, s.maxButtonValue)
}
