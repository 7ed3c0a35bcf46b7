package entity

import "time"

// Bot is a configured bot with at most one active scenario version.
type Bot struct {
	ID               string    `json:"id" bson:"id"`
	Name             string    `json:"name" bson:"name"`
	ActiveScenarioID string    `json:"active_scenario_id" bson:"active_scenario_id"`
	Enabled          bool      `json:"enabled" bson:"enabled"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
}

// Credentials authorize API access to one messaging platform for a bot.
type Credentials struct {
	BotID    string `json:"bot_id" bson:"bot_id"`
	Platform string `json:"platform" bson:"platform"`
	Token    string `json:"token" bson:"token"`
	Revoked  bool   `json:"revoked" bson:"revoked"`
}
