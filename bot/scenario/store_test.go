package scenario

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StaffBot/internal/errs"
)

type countingRepo struct {
	sc    *Scenario
	loads int
}

func (r *countingRepo) LoadActiveScenario(context.Context, string) (*Scenario, error) {
	r.loads++
	return r.sc, nil
}

func newTestStore(repo Repository) *Store {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(repo, resolveAll, 64, log)
}

func TestStoreCachesActiveScenario(t *testing.T) {
	repo := &countingRepo{sc: validScenario()}
	store := newTestStore(repo)

	first, err := store.ActiveForBot(context.Background(), "staff-bot")
	require.NoError(t, err)

	second, err := store.ActiveForBot(context.Background(), "staff-bot")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, repo.loads)
}

func TestStoreInvalidateForcesReload(t *testing.T) {
	repo := &countingRepo{sc: validScenario()}
	store := newTestStore(repo)

	_, err := store.ActiveForBot(context.Background(), "staff-bot")
	require.NoError(t, err)

	store.Invalidate("staff-bot")

	_, err = store.ActiveForBot(context.Background(), "staff-bot")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loads)
}

func TestStoreNoActiveScenario(t *testing.T) {
	store := newTestStore(&countingRepo{sc: nil})

	_, err := store.ActiveForBot(context.Background(), "staff-bot")
	assert.True(t, errs.IsNotFound(err))
}

func TestStoreRejectsInvalidScenario(t *testing.T) {
	broken := validScenario()
	broken.StartStep = "nowhere"
	store := newTestStore(&countingRepo{sc: broken})

	_, err := store.ActiveForBot(context.Background(), "staff-bot")
	assert.True(t, errs.IsConfiguration(err))
}
