package scenario

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"StaffBot/internal/errs"
)

// ResolveInput checks that exactly one registered processor claims the
// given input type. Ambiguous or unclaimed types are a configuration
// error surfaced here, at load time, never at message time.
type ResolveInput func(t InputType) error

var validate = validator.New()

const dateLayout = "2006-01-02"

// Validate checks a scenario for publishability: struct shape, graph
// integrity, processor resolution, per-type validation configs and
// button callback size. Any failure is a configuration error and the
// scenario must not go live.
func (s *Scenario) Validate(resolve ResolveInput, maxButtonValue int) error {
	if err := validate.Struct(s); err != nil {
		return errs.Configuration("scenario %s: %v", s.ID, err)
	}

	// Eager build so every later Step call is a read-only lookup.
	s.buildIndex()
	if len(s.index) != len(s.Steps) {
		return errs.Configuration("scenario %s: duplicate step ids", s.ID)
	}

	if _, ok := s.Step(s.StartStep); !ok {
		return errs.Configuration("scenario %s: start step %q does not exist", s.ID, s.StartStep)
	}

	for i := range s.Steps {
		if err := s.validateStep(&s.Steps[i], resolve, maxButtonValue); err != nil {
			return err
		}
	}

	return nil
}

func (s *Scenario) validateStep(step *Step, resolve ResolveInput, maxButtonValue int) error {
	if step.Next != nil {
		if err := s.validateTransition(step); err != nil {
			return err
		}
	}

	for _, row := range step.Message.Buttons {
		for _, btn := range row {
			if btn.Value == "" {
				return errs.Configuration("scenario %s: step %q has a button without a value", s.ID, step.ID)
			}
			if maxButtonValue > 0 && len(btn.Value) > maxButtonValue {
				return errs.Configuration("scenario %s: step %q button value %q exceeds %d bytes",
					s.ID, step.ID, btn.Value, maxButtonValue)
			}
		}
	}

	if step.Input == nil {
		return nil
	}

	if resolve != nil {
		if err := resolve(step.Input.Type); err != nil {
			return errs.Configuration("scenario %s: step %q: %v", s.ID, step.ID, err)
		}
	}

	if step.Input.Type == InputButton && len(step.Message.Buttons) == 0 {
		return errs.Configuration("scenario %s: step %q expects a button press but offers no buttons", s.ID, step.ID)
	}

	if v := step.Input.Validation; v != nil {
		if v.Pattern != "" {
			if _, err := regexp.Compile(v.Pattern); err != nil {
				return errs.Configuration("scenario %s: step %q has an invalid pattern: %v", s.ID, step.ID, err)
			}
		}
		for _, d := range []string{v.MinDate, v.MaxDate} {
			if d == "" {
				continue
			}
			if _, err := time.Parse(dateLayout, d); err != nil {
				return errs.Configuration("scenario %s: step %q has an invalid date bound %q", s.ID, step.ID, d)
			}
		}
	}

	return nil
}

func (s *Scenario) validateTransition(step *Step) error {
	t := step.Next

	switch {
	case t.Step != "" && t.Condition != nil:
		return errs.Configuration("scenario %s: step %q names both a literal next step and a condition", s.ID, step.ID)
	case t.Step == "" && t.Condition == nil:
		return errs.Configuration("scenario %s: step %q has an empty transition", s.ID, step.ID)
	}

	targets := []StepID{t.Step}
	if t.Condition != nil {
		targets = []StepID{t.Condition.IfTrue, t.Condition.IfFalse}

		if t.Condition.Op == OpEq && len(t.Condition.Values) > 0 {
			return errs.Configuration("scenario %s: step %q uses op=eq with a values list", s.ID, step.ID)
		}
		if t.Condition.Op == OpIn && len(t.Condition.Values) == 0 {
			return errs.Configuration("scenario %s: step %q uses op=in without values", s.ID, step.ID)
		}
	}

	for _, target := range targets {
		if _, ok := s.Step(target); !ok {
			return errs.Configuration("scenario %s: step %q references unknown step %q", s.ID, step.ID, target)
		}
	}

	return nil
}
