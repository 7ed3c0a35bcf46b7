package entity

import "time"

// WebhookStatus is the lifecycle state of a bot-platform webhook.
type WebhookStatus string

const (
	WebhookUnregistered WebhookStatus = "UNREGISTERED"
	WebhookRegistering  WebhookStatus = "REGISTERING"
	WebhookActive       WebhookStatus = "ACTIVE"
	WebhookDegraded     WebhookStatus = "DEGRADED"
)

// WebhookRegistration is one record per (bot, platform). Created when
// credentials are attached to a bot, mutated only by the lifecycle
// manager, deactivated when credentials are revoked.
type WebhookRegistration struct {
	BotID         string        `json:"bot_id" bson:"bot_id"`
	Platform      string        `json:"platform" bson:"platform"`
	WebhookURL    string        `json:"webhook_url" bson:"webhook_url"`
	Status        WebhookStatus `json:"status" bson:"status"`
	AutoRefresh   bool          `json:"auto_refresh" bson:"auto_refresh"`
	FailureCount  int           `json:"failure_count" bson:"failure_count"`
	LastCheckedAt time.Time     `json:"last_checked_at" bson:"last_checked_at"`
}
