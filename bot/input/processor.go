package input

import (
	"StaffBot/bot/scenario"
	"StaffBot/entity"
	"StaffBot/internal/errs"
)

// Processor validates and transforms one kind of expected input.
type Processor interface {
	// CanProcess reports whether this processor claims the input type.
	CanProcess(t scenario.InputType) bool

	// Process validates the inbound message against the step's expected
	// input and returns the value to collect. Failures are validation
	// errors carrying the re-prompt text.
	Process(in entity.Message, step *scenario.Step) (any, error)
}

// Registry is an ordered list of processors; dispatch is first-match.
// Ambiguous or unclaimed types are rejected by Resolve at scenario load
// time, so message-time dispatch never misses.
type Registry struct {
	processors []Processor
}

// NewRegistry creates a registry over the given processors, in order.
func NewRegistry(processors ...Processor) *Registry {
	return &Registry{processors: processors}
}

// DefaultRegistry wires the standard processor set.
func DefaultRegistry() *Registry {
	return NewRegistry(
		TextProcessor{},
		ButtonProcessor{},
		FileProcessor{},
		LocationProcessor{},
		CalendarProcessor{},
	)
}

// Resolve checks that exactly one processor claims the type.
func (r *Registry) Resolve(t scenario.InputType) error {
	claims := 0
	for _, p := range r.processors {
		if p.CanProcess(t) {
			claims++
		}
	}

	switch claims {
	case 0:
		return errs.Configuration("no input processor claims type %q", t)
	case 1:
		return nil
	default:
		return errs.Configuration("input type %q is claimed by %d processors", t, claims)
	}
}

// Process dispatches to the first processor claiming the step's input
// type.
func (r *Registry) Process(in entity.Message, step *scenario.Step) (any, error) {
	for _, p := range r.processors {
		if p.CanProcess(step.Input.Type) {
			return p.Process(in, step)
		}
	}
	return nil, errs.Configuration("no input processor claims type %q", step.Input.Type)
}
