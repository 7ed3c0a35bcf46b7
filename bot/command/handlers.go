package command

import (
	"context"
	"fmt"

	"StaffBot/entity"
)

// HelpHandler lists the known commands.
type HelpHandler struct{}

func (HelpHandler) CanHandle(cmd string) bool { return cmd == "help" }

func (HelpHandler) Handle(_ context.Context, _ DialogContext) (Result, error) {
	return Result{
		Message: entity.BotMessage{
			Text: "Available commands:\n" +
				"/help - show this message\n" +
				"/status - show where you are in the current flow\n" +
				"/restart - start the flow over from the beginning",
		},
	}, nil
}

// StatusHandler reports the dialog's current step and how many answers
// have been collected.
type StatusHandler struct{}

func (StatusHandler) CanHandle(cmd string) bool { return cmd == "status" }

func (StatusHandler) Handle(_ context.Context, d DialogContext) (Result, error) {
	return Result{
		Message: entity.BotMessage{
			Text: fmt.Sprintf("You are at step %q with %d answer(s) collected.",
				d.CurrentStep, len(d.Collected)),
		},
	}, nil
}

// RestartHandler is the only handler permitted to reset dialog state.
type RestartHandler struct{}

func (RestartHandler) CanHandle(cmd string) bool { return cmd == "restart" }

func (RestartHandler) Handle(_ context.Context, _ DialogContext) (Result, error) {
	return Result{
		Message:    entity.BotMessage{Text: "Starting over."},
		ResetState: true,
	}, nil
}
