package entity

import "time"

// Direction of a conversation event relative to the engine.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// ConversationEvent is an append-only record of a single inbound or
// outbound message. Written once, never mutated.
type ConversationEvent struct {
	BotID     string    `json:"bot_id" bson:"bot_id"`
	Platform  string    `json:"platform" bson:"platform"`
	ChatID    string    `json:"chat_id" bson:"chat_id"`
	Direction Direction `json:"direction" bson:"direction"`
	Payload   any       `json:"payload" bson:"payload"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
