package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StaffBot/bot/command"
	"StaffBot/bot/input"
	"StaffBot/bot/platform"
	"StaffBot/bot/scenario"
	"StaffBot/entity"
	"StaffBot/internal/errs"
)

// memStorage is an in-memory StateStorage. Saves copy the state so later
// engine mutations cannot leak into what was "persisted".
type memStorage struct {
	mu     sync.Mutex
	states map[string]*DialogState
	saves  int
}

func newMemStorage() *memStorage {
	return &memStorage{states: make(map[string]*DialogState)}
}

func stateKey(botID, platformName, chatID string) string {
	return botID + "|" + platformName + "|" + chatID
}

func (m *memStorage) Save(_ context.Context, state *DialogState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.states[stateKey(state.BotID, state.Platform, state.ChatID)] = copyState(state)
	return nil
}

func (m *memStorage) Load(_ context.Context, botID, platformName, chatID string) (*DialogState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[stateKey(botID, platformName, chatID)]
	if !ok {
		return nil, nil
	}
	return copyState(state), nil
}

func copyState(state *DialogState) *DialogState {
	dup := *state
	dup.Collected = make(map[string]any, len(state.Collected))
	for k, v := range state.Collected {
		dup.Collected[k] = v
	}
	return &dup
}

// fakeAdapter speaks JSON-encoded neutral messages instead of a real
// platform wire format and records everything it sends.
type fakeAdapter struct {
	mu      sync.Mutex
	sent    []entity.BotMessage
	sendErr error
}

func (f *fakeAdapter) Name() string        { return "fake" }
func (f *fakeAdapter) MaxButtonValue() int { return 64 }

func (f *fakeAdapter) VerifyRequest(http.Header) error { return nil }

func (f *fakeAdapter) Normalize(raw []byte) (entity.Message, error) {
	var in entity.Message
	if err := json.Unmarshal(raw, &in); err != nil {
		return entity.Message{}, err
	}
	return in, nil
}

func (f *fakeAdapter) Render(msg entity.BotMessage) []platform.Payload {
	return []platform.Payload{msg}
}

func (f *fakeAdapter) Send(_ context.Context, _ entity.Credentials, _ string, p platform.Payload) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, p.(entity.BotMessage))
	return nil
}

func (f *fakeAdapter) WebhookURL(context.Context, entity.Credentials) (string, error) {
	return "", nil
}
func (f *fakeAdapter) RegisterWebhook(context.Context, entity.Credentials, string) error { return nil }
func (f *fakeAdapter) UnregisterWebhook(context.Context, entity.Credentials) error       { return nil }

func (f *fakeAdapter) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	texts := make([]string, 0, len(f.sent))
	for _, msg := range f.sent {
		texts = append(texts, msg.Text)
	}
	return texts
}

type fakeScenarioRepo struct {
	sc *scenario.Scenario
}

func (r *fakeScenarioRepo) LoadActiveScenario(_ context.Context, botID string) (*scenario.Scenario, error) {
	return r.sc, nil
}

type fakeCreds struct{}

func (fakeCreds) GetCredentials(_ context.Context, botID, platformName string) (entity.Credentials, error) {
	return entity.Credentials{BotID: botID, Platform: platformName, Token: "test-token"}, nil
}

type memRecorder struct {
	mu     sync.Mutex
	events []entity.ConversationEvent
}

func (r *memRecorder) Record(event entity.ConversationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *memRecorder) directions() []entity.Direction {
	r.mu.Lock()
	defer r.mu.Unlock()
	dirs := make([]entity.Direction, 0, len(r.events))
	for _, e := range r.events {
		dirs = append(dirs, e.Direction)
	}
	return dirs
}

func onboardingScenario() *scenario.Scenario {
	return &scenario.Scenario{
		ID:        "onboarding",
		Version:   "v1",
		StartStep: "ask_name",
		Steps: []scenario.Step{
			{
				ID:      "ask_name",
				Message: scenario.MessageTemplate{Text: "What is your name?"},
				Input:   &scenario.ExpectedInput{Type: scenario.InputText, Variable: "name"},
				Next:    &scenario.Transition{Step: "ask_position"},
			},
			{
				ID: "ask_position",
				Message: scenario.MessageTemplate{
					Text: "Nice to meet you, ${name}! Pick your position:",
					Buttons: [][]entity.Button{
						{{Text: "Food guide", Value: "food-guide"}, {Text: "Cook", Value: "cook"}},
					},
				},
				Input: &scenario.ExpectedInput{Type: scenario.InputButton, Variable: "position"},
				Next: &scenario.Transition{Condition: &scenario.Condition{
					Var:     "position",
					Op:      scenario.OpEq,
					Value:   "food-guide",
					IfTrue:  "guide_intro",
					IfFalse: "done",
				}},
			},
			{
				ID:      "guide_intro",
				Message: scenario.MessageTemplate{Text: "Welcome aboard, guide!"},
				Next:    &scenario.Transition{Step: "done"},
			},
			{
				ID:      "done",
				Message: scenario.MessageTemplate{Text: "All set, ${name}."},
			},
		},
	}
}

type engineFixture struct {
	engine   *Engine
	storage  *memStorage
	adapter  *fakeAdapter
	recorder *memRecorder
}

func newEngineFixture(t *testing.T, sc *scenario.Scenario) *engineFixture {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	inputs := input.DefaultRegistry()
	storage := newMemStorage()
	adapter := &fakeAdapter{}
	recorder := &memRecorder{}

	store := scenario.NewStore(&fakeScenarioRepo{sc: sc}, inputs.Resolve, adapter.MaxButtonValue(), log)

	engine := NewEngine(
		store,
		storage,
		inputs,
		command.DefaultRegistry(),
		platform.NewRegistry(adapter),
		fakeCreds{},
		recorder,
		log,
	)

	return &engineFixture{engine: engine, storage: storage, adapter: adapter, recorder: recorder}
}

func rawMessage(t *testing.T, in entity.Message) []byte {
	t.Helper()
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	return raw
}

func (f *engineFixture) handle(t *testing.T, in entity.Message) {
	t.Helper()
	require.NoError(t, f.engine.Handle(context.Background(), "staff-bot", "fake", rawMessage(t, in)))
}

func (f *engineFixture) state(t *testing.T, chatID string) *DialogState {
	t.Helper()
	state, err := f.storage.Load(context.Background(), "staff-bot", "fake", chatID)
	require.NoError(t, err)
	require.NotNil(t, state)
	return state
}

func TestEngineFullFlow(t *testing.T) {
	f := newEngineFixture(t, onboardingScenario())
	chat := "100500"

	// First contact: the dialog starts at ask_name and the message itself
	// is not consumed as an answer.
	f.handle(t, entity.Message{ChatID: chat, Text: "hi"})
	state := f.state(t, chat)
	assert.Equal(t, scenario.StepID("ask_name"), state.CurrentStep)
	assert.Empty(t, state.Collected)
	assert.Equal(t, []string{"What is your name?"}, f.adapter.sentTexts())

	f.handle(t, entity.Message{ChatID: chat, Text: "Ivan"})
	state = f.state(t, chat)
	assert.Equal(t, scenario.StepID("ask_position"), state.CurrentStep)
	assert.Equal(t, "Ivan", state.GetString("name"))
	assert.Contains(t, f.adapter.sentTexts()[1], "Nice to meet you, Ivan!")

	f.handle(t, entity.Message{ChatID: chat, CallbackData: "food-guide"})
	state = f.state(t, chat)
	assert.Equal(t, scenario.StepID("guide_intro"), state.CurrentStep)
	assert.Equal(t, "food-guide", state.GetString("position"))

	// Narrative step: any message is an implicit continue.
	f.handle(t, entity.Message{ChatID: chat, Text: "ok"})
	state = f.state(t, chat)
	assert.Equal(t, scenario.StepID("done"), state.CurrentStep)
	assert.Contains(t, f.adapter.sentTexts()[3], "All set, Ivan.")
}

func TestEngineConditionBranching(t *testing.T) {
	f := newEngineFixture(t, onboardingScenario())
	chat := "200"

	f.handle(t, entity.Message{ChatID: chat, Text: "hi"})
	f.handle(t, entity.Message{ChatID: chat, Text: "Maria"})
	f.handle(t, entity.Message{ChatID: chat, CallbackData: "cook"})

	state := f.state(t, chat)
	assert.Equal(t, scenario.StepID("done"), state.CurrentStep)
}

func TestEngineReprompt(t *testing.T) {
	f := newEngineFixture(t, onboardingScenario())
	chat := "300"

	f.handle(t, entity.Message{ChatID: chat, Text: "hi"})
	f.handle(t, entity.Message{ChatID: chat, Text: "Ivan"})

	// Invalid answers re-prompt without advancing or mutating state, so a
	// duplicate delivery of the same bad answer is harmless.
	for i := 0; i < 2; i++ {
		f.handle(t, entity.Message{ChatID: chat, Text: "director"})
		state := f.state(t, chat)
		assert.Equal(t, scenario.StepID("ask_position"), state.CurrentStep)
		assert.Equal(t, map[string]any{"name": "Ivan"}, state.Collected)
	}

	texts := f.adapter.sentTexts()
	require.Len(t, texts, 4)
	assert.Contains(t, texts[2], "Pick your position:")
	assert.Contains(t, texts[2], "Please pick one of the offered options.")
	assert.Equal(t, texts[2], texts[3])
}

func TestEngineRestartCommand(t *testing.T) {
	f := newEngineFixture(t, onboardingScenario())
	chat := "400"

	f.handle(t, entity.Message{ChatID: chat, Text: "hi"})
	f.handle(t, entity.Message{ChatID: chat, Text: "Ivan"})

	f.handle(t, entity.Message{ChatID: chat, Text: "/restart"})

	state := f.state(t, chat)
	assert.Equal(t, scenario.StepID("ask_name"), state.CurrentStep)
	assert.Empty(t, state.Collected)

	texts := f.adapter.sentTexts()
	assert.Equal(t, "Starting over.", texts[len(texts)-2])
	assert.Equal(t, "What is your name?", texts[len(texts)-1])
}

func TestEngineStatusCommandDoesNotAdvance(t *testing.T) {
	f := newEngineFixture(t, onboardingScenario())
	chat := "500"

	f.handle(t, entity.Message{ChatID: chat, Text: "hi"})
	f.handle(t, entity.Message{ChatID: chat, Text: "Ivan"})
	before := f.state(t, chat)

	f.handle(t, entity.Message{ChatID: chat, Text: "/status"})

	after := f.state(t, chat)
	assert.Equal(t, before.CurrentStep, after.CurrentStep)
	assert.Equal(t, before.Collected, after.Collected)

	texts := f.adapter.sentTexts()
	assert.Contains(t, texts[len(texts)-1], `"ask_position"`)
}

func TestEngineCommandBeatsStepInput(t *testing.T) {
	f := newEngineFixture(t, onboardingScenario())
	chat := "600"

	f.handle(t, entity.Message{ChatID: chat, Text: "hi"})

	// "status" parses as valid text input for ask_name, but commands get
	// first refusal.
	f.handle(t, entity.Message{ChatID: chat, Text: "status"})

	state := f.state(t, chat)
	assert.Equal(t, scenario.StepID("ask_name"), state.CurrentStep)
	assert.Empty(t, state.Collected)
}

func TestEngineHotSwappedStepRestarts(t *testing.T) {
	f := newEngineFixture(t, onboardingScenario())
	chat := "700"

	stale := NewDialogState("staff-bot", "fake", chat, onboardingScenario())
	stale.CurrentStep = "removed_step"
	stale.Set("name", "Ivan")
	require.NoError(t, f.storage.Save(context.Background(), stale))

	f.handle(t, entity.Message{ChatID: chat, Text: "hello"})

	state := f.state(t, chat)
	assert.Equal(t, scenario.StepID("ask_name"), state.CurrentStep)
	// Collected answers survive a version swap; only the position resets.
	assert.Equal(t, "Ivan", state.GetString("name"))
}

func TestEngineDeliveryFailureDoesNotFailHandle(t *testing.T) {
	f := newEngineFixture(t, onboardingScenario())
	f.adapter.sendErr = errors.New("telegram unreachable")
	chat := "800"

	f.handle(t, entity.Message{ChatID: chat, Text: "hi"})

	// The transition was persisted before delivery was attempted.
	state := f.state(t, chat)
	assert.Equal(t, scenario.StepID("ask_name"), state.CurrentStep)

	dirs := f.recorder.directions()
	require.Len(t, dirs, 2)
	assert.Equal(t, entity.DirectionIn, dirs[0])
	assert.Equal(t, entity.DirectionOut, dirs[1])
}

func TestEngineUnknownPlatform(t *testing.T) {
	f := newEngineFixture(t, onboardingScenario())

	err := f.engine.Handle(context.Background(), "staff-bot", "viber", []byte(`{}`))
	assert.True(t, errs.IsNotFound(err))
}

func TestEngineIgnoresChatlessUpdates(t *testing.T) {
	f := newEngineFixture(t, onboardingScenario())

	require.NoError(t, f.engine.Handle(context.Background(), "staff-bot", "fake", []byte(`{}`)))
	assert.Empty(t, f.adapter.sentTexts())
}

func TestEngineSerializesConcurrentMessages(t *testing.T) {
	const workers = 16

	steps := make([]scenario.Step, 0, workers+1)
	for i := 0; i < workers; i++ {
		steps = append(steps, scenario.Step{
			ID:      scenario.StepID(fmt.Sprintf("s%d", i)),
			Message: scenario.MessageTemplate{Text: fmt.Sprintf("prompt %d", i)},
			Input: &scenario.ExpectedInput{
				Type:     scenario.InputText,
				Variable: fmt.Sprintf("v%d", i),
			},
			Next: &scenario.Transition{Step: scenario.StepID(fmt.Sprintf("s%d", i+1))},
		})
	}
	steps = append(steps, scenario.Step{
		ID:      scenario.StepID(fmt.Sprintf("s%d", workers)),
		Message: scenario.MessageTemplate{Text: "done"},
	})

	chain := &scenario.Scenario{ID: "chain", Version: "v1", StartStep: "s0", Steps: steps}
	f := newEngineFixture(t, chain)
	chat := "900"

	seed := NewDialogState("staff-bot", "fake", chat, chain)
	require.NoError(t, f.storage.Save(context.Background(), seed))

	errc := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw := rawMessage(t, entity.Message{ChatID: chat, Text: fmt.Sprintf("answer %d", i)})
			errc <- f.engine.Handle(context.Background(), "staff-bot", "fake", raw)
		}(i)
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		require.NoError(t, err)
	}

	// Per-chat serialization means every message lands on a distinct step:
	// exactly one answer per step, no lost updates.
	state := f.state(t, chat)
	assert.Equal(t, scenario.StepID(fmt.Sprintf("s%d", workers)), state.CurrentStep)
	assert.Len(t, state.Collected, workers)
}
