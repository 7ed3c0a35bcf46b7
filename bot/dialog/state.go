package dialog

import (
	"time"

	"StaffBot/bot/scenario"
)

// DialogState is the durable per-(bot, platform, chat) record of where a
// conversation is and what has been collected so far. It is created on
// the first inbound message for a chat, mutated exclusively by the
// engine, and never deleted automatically.
type DialogState struct {
	BotID             string          `json:"bot_id" bson:"bot_id"`
	Platform          string          `json:"platform" bson:"platform"`
	ChatID            string          `json:"chat_id" bson:"chat_id"`
	ScenarioID        string          `json:"scenario_id" bson:"scenario_id"`
	ScenarioVersion   string          `json:"scenario_version" bson:"scenario_version"`
	CurrentStep       scenario.StepID `json:"current_step" bson:"current_step"`
	Collected         map[string]any  `json:"collected_data" bson:"collected_data"`
	LastInteractionAt time.Time       `json:"last_interaction_at" bson:"last_interaction_at"`
}

// NewDialogState creates a state pointing at a scenario's start step.
func NewDialogState(botID, platform, chatID string, sc *scenario.Scenario) *DialogState {
	return &DialogState{
		BotID:             botID,
		Platform:          platform,
		ChatID:            chatID,
		ScenarioID:        sc.ID,
		ScenarioVersion:   sc.Version,
		CurrentStep:       sc.StartStep,
		Collected:         make(map[string]any),
		LastInteractionAt: time.Now(),
	}
}

// Set stores a collected value. Values are appended or overwritten,
// never deleted mid-flow.
func (s *DialogState) Set(key string, value any) {
	if s.Collected == nil {
		s.Collected = make(map[string]any)
	}
	s.Collected[key] = value
}

// GetString retrieves a collected string value.
func (s *DialogState) GetString(key string) string {
	if v, ok := s.Collected[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

// Reset moves the dialog back to the scenario's start step and clears
// collected data. Only the restart command path calls this.
func (s *DialogState) Reset(sc *scenario.Scenario) {
	s.ScenarioID = sc.ID
	s.ScenarioVersion = sc.Version
	s.CurrentStep = sc.StartStep
	s.Collected = make(map[string]any)
	s.LastInteractionAt = time.Now()
}
