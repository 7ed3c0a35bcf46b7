package dialog

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"StaffBot/bot/command"
	"StaffBot/bot/input"
	"StaffBot/bot/platform"
	"StaffBot/bot/scenario"
	"StaffBot/entity"
	"StaffBot/internal/errs"
	"StaffBot/internal/lib/sl"
)

// CredentialsProvider is the bot CRUD collaborator surface the engine
// needs: platform credentials per bot.
type CredentialsProvider interface {
	GetCredentials(ctx context.Context, botID, platformName string) (entity.Credentials, error)
}

// EventRecorder is the conversation logger surface: fire-and-forget,
// never blocks or fails the engine path.
type EventRecorder interface {
	Record(event entity.ConversationEvent)
}

// Engine orchestrates a single inbound message: command check, input
// validation, state transition, persistence, outbound send.
type Engine struct {
	scenarios *scenario.Store
	storage   StateStorage
	inputs    *input.Registry
	commands  *command.Registry
	platforms *platform.Registry
	creds     CredentialsProvider
	recorder  EventRecorder
	locks     *KeyedLocks
	log       *slog.Logger
}

// NewEngine wires the dialog engine.
func NewEngine(
	scenarios *scenario.Store,
	storage StateStorage,
	inputs *input.Registry,
	commands *command.Registry,
	platforms *platform.Registry,
	creds CredentialsProvider,
	recorder EventRecorder,
	log *slog.Logger,
) *Engine {
	return &Engine{
		scenarios: scenarios,
		storage:   storage,
		inputs:    inputs,
		commands:  commands,
		platforms: platforms,
		creds:     creds,
		recorder:  recorder,
		locks:     NewKeyedLocks(),
		log:       log.With(sl.Module("dialog.engine")),
	}
}

// VerifyInbound checks a platform's authenticity marker on an inbound
// webhook request before the payload is accepted.
func (e *Engine) VerifyInbound(platformName string, header http.Header) error {
	adapter, err := e.platforms.Get(platformName)
	if err != nil {
		return err
	}
	return adapter.VerifyRequest(header)
}

// Handle processes one raw inbound webhook payload for a bot. Validation
// and delivery failures are converted into re-prompts or logged drops and
// never returned; only unknown bots/scenarios and storage failures
// surface to the caller.
func (e *Engine) Handle(ctx context.Context, botID, platformName string, raw []byte) error {
	adapter, err := e.platforms.Get(platformName)
	if err != nil {
		return err
	}

	in, err := adapter.Normalize(raw)
	if err != nil {
		return err
	}
	if in.ChatID == "" {
		// Update kind we don't handle (edits, reactions, joins).
		return nil
	}
	in.BotID = botID

	e.record(entity.ConversationEvent{
		BotID:     botID,
		Platform:  platformName,
		ChatID:    in.ChatID,
		Direction: entity.DirectionIn,
		Payload:   in,
		Timestamp: time.Now(),
	})

	// All processing for one (bot, platform, chat) is serialized;
	// different chats proceed in parallel.
	unlock := e.locks.Lock(botID + "|" + platformName + "|" + in.ChatID)
	defer unlock()

	sc, err := e.scenarios.ActiveForBot(ctx, botID)
	if err != nil {
		return err
	}

	state, err := e.storage.Load(ctx, botID, platformName, in.ChatID)
	if err != nil {
		return err
	}

	if state == nil {
		return e.startDialog(ctx, adapter, sc, botID, platformName, in)
	}

	log := e.log.With(
		slog.String("bot_id", botID),
		slog.String("platform", platformName),
		slog.String("chat_id", in.ChatID),
		slog.String("step_id", string(state.CurrentStep)),
	)

	// Commands get first refusal and never advance the flow.
	handled, err := e.tryCommand(ctx, adapter, sc, state, in, log)
	if handled || err != nil {
		return err
	}

	step, ok := sc.Step(state.CurrentStep)
	if !ok {
		// The active scenario was hot-swapped and the recorded step no
		// longer exists; restart the dialog rather than leave it stuck.
		log.Warn("current step missing from active scenario, restarting dialog",
			slog.String("scenario_version", sc.Version))
		state.CurrentStep = sc.StartStep
		state.ScenarioID = sc.ID
		state.ScenarioVersion = sc.Version
		return e.transition(ctx, adapter, sc, state, sc.StartStep, log)
	}

	if step.Input == nil {
		// Narrative step: any inbound message is an implicit continue.
		if step.Next == nil {
			return nil
		}
		next, evaluated := step.Next.Resolve(state.Collected)
		if !evaluated {
			log.Warn("condition not evaluable, taking if_false branch")
		}
		return e.transition(ctx, adapter, sc, state, next, log)
	}

	value, err := e.inputs.Process(in, step)
	if err != nil {
		if errs.IsValidation(err) {
			// Re-prompt; state and collected data stay untouched so the
			// retry is idempotent.
			msg := step.RenderMessage(state.Collected)
			msg.Text = msg.Text + "\n\n" + errs.UserMessage(err)
			e.deliver(ctx, adapter, state, msg, log)
			return nil
		}
		return err
	}

	state.Set(step.Input.Variable, value)

	if step.Next == nil {
		// Terminal collecting step: persist the answer and stay.
		state.LastInteractionAt = time.Now()
		return e.storage.Save(ctx, state)
	}

	next, evaluated := step.Next.Resolve(state.Collected)
	if !evaluated {
		log.Warn("condition not evaluable, taking if_false branch",
			slog.String("variable", step.Next.Condition.Var))
	}

	return e.transition(ctx, adapter, sc, state, next, log)
}

// startDialog creates state at the scenario's start step and sends its
// prompt. The first inbound message itself is not treated as step input:
// the user has not seen a prompt yet. Commands still get first refusal.
func (e *Engine) startDialog(ctx context.Context, adapter platform.Adapter, sc *scenario.Scenario, botID, platformName string, in entity.Message) error {
	state := NewDialogState(botID, platformName, in.ChatID, sc)

	log := e.log.With(
		slog.String("bot_id", botID),
		slog.String("platform", platformName),
		slog.String("chat_id", in.ChatID),
	)

	handled, err := e.tryCommand(ctx, adapter, sc, state, in, log)
	if handled || err != nil {
		return err
	}

	log.Info("starting dialog",
		slog.String("scenario_id", sc.ID),
		slog.String("step_id", string(sc.StartStep)),
	)

	return e.transition(ctx, adapter, sc, state, sc.StartStep, log)
}

// tryCommand offers the inbound text to the command registry. Restart is
// the only command that touches state: it resets to the start step,
// clears collected data and re-sends the start prompt.
func (e *Engine) tryCommand(ctx context.Context, adapter platform.Adapter, sc *scenario.Scenario, state *DialogState, in entity.Message, log *slog.Logger) (bool, error) {
	res, claimed, err := e.commands.Dispatch(ctx, in.Text, command.DialogContext{
		BotID:       state.BotID,
		Platform:    state.Platform,
		ChatID:      state.ChatID,
		CurrentStep: string(state.CurrentStep),
		Collected:   state.Collected,
	})
	if err != nil {
		log.Error("command handler failed", sl.Err(err))
		return true, nil
	}
	if !claimed {
		return false, nil
	}

	log.Info("command handled", slog.String("text", in.Text))

	if !res.ResetState {
		e.deliver(ctx, adapter, state, res.Message, log)
		return true, nil
	}

	state.Reset(sc)
	e.deliver(ctx, adapter, state, res.Message, log)
	return true, e.transition(ctx, adapter, sc, state, sc.StartStep, log)
}

// transition moves the dialog to next and sends that step's message.
// State is persisted before the send is attempted: a crash between the
// two risks only a duplicate send, never a lost transition.
func (e *Engine) transition(ctx context.Context, adapter platform.Adapter, sc *scenario.Scenario, state *DialogState, next scenario.StepID, log *slog.Logger) error {
	step, ok := sc.Step(next)
	if !ok {
		return errs.Configuration("scenario %s: transition to unknown step %q", sc.ID, next)
	}

	state.CurrentStep = next
	state.LastInteractionAt = time.Now()

	if err := e.storage.Save(ctx, state); err != nil {
		return err
	}

	log.Debug("transitioned", slog.String("step_id", string(next)))

	e.deliver(ctx, adapter, state, step.RenderMessage(state.Collected), log)
	return nil
}

// deliver renders and sends an outbound message with bounded retries.
// Delivery failures are recorded and dropped; the webhook caller still
// gets its fast acknowledgment.
func (e *Engine) deliver(ctx context.Context, adapter platform.Adapter, state *DialogState, msg entity.BotMessage, log *slog.Logger) {
	creds, err := e.creds.GetCredentials(ctx, state.BotID, state.Platform)
	if err != nil {
		log.Error("loading credentials", sl.Err(err))
		return
	}

	for _, payload := range adapter.Render(msg) {
		p := payload
		err := errs.WithRetry(ctx, func() error {
			return adapter.Send(ctx, creds, state.ChatID, p)
		})
		if err != nil {
			log.Error("delivery failed after retries", sl.Err(err))
			e.record(entity.ConversationEvent{
				BotID:     state.BotID,
				Platform:  state.Platform,
				ChatID:    state.ChatID,
				Direction: entity.DirectionOut,
				Payload:   map[string]any{"delivery_failed": true, "error": err.Error()},
				Timestamp: time.Now(),
			})
			return
		}
	}

	e.record(entity.ConversationEvent{
		BotID:     state.BotID,
		Platform:  state.Platform,
		ChatID:    state.ChatID,
		Direction: entity.DirectionOut,
		Payload:   msg,
		Timestamp: time.Now(),
	})
}

func (e *Engine) record(event entity.ConversationEvent) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(event)
}
