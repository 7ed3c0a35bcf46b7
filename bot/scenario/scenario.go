package scenario

import (
	"sync"
	"time"

	"StaffBot/entity"
)

// StepID is a unique identifier for a step within a scenario.
type StepID string

// InputType identifies which input processor a step expects.
type InputType string

const (
	InputText     InputType = "text"
	InputButton   InputType = "button"
	InputFile     InputType = "file"
	InputLocation InputType = "location"
	InputCalendar InputType = "calendar"
)

// Scenario is an immutable, versioned conversation graph. Published
// scenarios are never mutated; edits create a new version.
type Scenario struct {
	ID        string    `json:"id" bson:"id" validate:"required"`
	Version   string    `json:"version" bson:"version"`
	StartStep StepID    `json:"start_step" bson:"start_step" validate:"required"`
	Steps     []Step    `json:"steps" bson:"steps" validate:"required,min=1,dive"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`

	index     map[StepID]*Step
	indexOnce sync.Once
}

// Step is a single node: outbound message template, optional expected
// input, optional next-step rule. A step without Next is terminal.
type Step struct {
	ID      StepID          `json:"id" bson:"id" validate:"required"`
	Message MessageTemplate `json:"message" bson:"message"`
	Input   *ExpectedInput  `json:"expected_input,omitempty" bson:"expected_input,omitempty"`
	Next    *Transition     `json:"next_step,omitempty" bson:"next_step,omitempty"`
}

// MessageTemplate is the outbound message of a step. Text and media
// captions support ${variable} interpolation over collected data.
type MessageTemplate struct {
	Text    string             `json:"text" bson:"text" validate:"required"`
	Media   []entity.MediaItem `json:"media,omitempty" bson:"media,omitempty"`
	Buttons [][]entity.Button  `json:"buttons,omitempty" bson:"buttons,omitempty"`
}

// ExpectedInput declares what a step waits for and where the validated
// value is stored.
type ExpectedInput struct {
	Type       InputType   `json:"type" bson:"type" validate:"required"`
	Variable   string      `json:"variable" bson:"variable" validate:"required"`
	Validation *Validation `json:"validation,omitempty" bson:"validation,omitempty"`
}

// Validation carries per-type constraints for an expected input.
type Validation struct {
	Pattern string   `json:"pattern,omitempty" bson:"pattern,omitempty"`
	MinDate string   `json:"min_date,omitempty" bson:"min_date,omitempty"`
	MaxDate string   `json:"max_date,omitempty" bson:"max_date,omitempty"`
	MinLat  *float64 `json:"min_lat,omitempty" bson:"min_lat,omitempty"`
	MaxLat  *float64 `json:"max_lat,omitempty" bson:"max_lat,omitempty"`
	MinLon  *float64 `json:"min_lon,omitempty" bson:"min_lon,omitempty"`
	MaxLon  *float64 `json:"max_lon,omitempty" bson:"max_lon,omitempty"`
}

// Transition names the next step: either a literal id or a condition
// branch over collected data. Exactly one of the two is set.
type Transition struct {
	Step      StepID     `json:"step,omitempty" bson:"step,omitempty"`
	Condition *Condition `json:"condition,omitempty" bson:"condition,omitempty"`
}

// ConditionOp is the operator of a branch condition.
type ConditionOp string

const (
	OpEq ConditionOp = "eq"
	OpIn ConditionOp = "in"
)

// Condition is an equality or membership check over one collected
// variable.
type Condition struct {
	Var     string      `json:"var" bson:"var" validate:"required"`
	Op      ConditionOp `json:"op" bson:"op" validate:"required,oneof=eq in"`
	Value   string      `json:"value,omitempty" bson:"value,omitempty"`
	Values  []string    `json:"values,omitempty" bson:"values,omitempty"`
	IfTrue  StepID      `json:"if_true" bson:"if_true" validate:"required"`
	IfFalse StepID      `json:"if_false" bson:"if_false" validate:"required"`
}

// Step returns the step with the given id. Safe for concurrent use:
// Validate builds the index before a scenario is shared, and the
// fallback build here runs at most once.
func (s *Scenario) Step(id StepID) (*Step, bool) {
	s.indexOnce.Do(func() {
		if s.index == nil {
			s.buildIndex()
		}
	})
	step, ok := s.index[id]
	return step, ok
}

func (s *Scenario) buildIndex() {
	s.index = make(map[StepID]*Step, len(s.Steps))
	for i := range s.Steps {
		s.index[s.Steps[i].ID] = &s.Steps[i]
	}
}
