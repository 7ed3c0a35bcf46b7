package entity

// Message is the platform-neutral representation of an inbound event.
// Platform adapters produce it from raw webhook payloads; exactly one of
// the content fields is expected to be meaningful for a given event.
type Message struct {
	Platform     string    `json:"platform" bson:"platform"`
	BotID        string    `json:"bot_id" bson:"bot_id"`
	ChatID       string    `json:"chat_id" bson:"chat_id"`
	UserID       string    `json:"user_id" bson:"user_id"`
	Text         string    `json:"text,omitempty" bson:"text,omitempty"`
	CallbackData string    `json:"callback_data,omitempty" bson:"callback_data,omitempty"`
	FileID       string    `json:"file_id,omitempty" bson:"file_id,omitempty"`
	Location     *Location `json:"location,omitempty" bson:"location,omitempty"`
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`
}

// Location is a geographic point shared by a user.
type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// BotMessage is the platform-neutral outbound message: text with optional
// media items and optional buttons. When more than one media item is
// present the buttons follow the media group as a separate message, since
// several platforms cannot attach interactive controls to grouped media.
type BotMessage struct {
	Text    string      `json:"text" bson:"text"`
	Media   []MediaItem `json:"media,omitempty" bson:"media,omitempty"`
	Buttons [][]Button  `json:"buttons,omitempty" bson:"buttons,omitempty"`
}

// MediaType identifies the kind of a media item.
type MediaType string

const (
	MediaPhoto    MediaType = "photo"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
)

// MediaItem references a media object by platform file id or URL.
type MediaItem struct {
	Type    MediaType `json:"type" bson:"type"`
	Ref     string    `json:"ref" bson:"ref"`
	Caption string    `json:"caption,omitempty" bson:"caption,omitempty"`
}

// Button is an interactive option. Value is what comes back as callback
// data when the button is pressed; platforms cap its size.
type Button struct {
	Text  string `json:"text" bson:"text"`
	Value string `json:"value" bson:"value"`
}

// HasMediaGroup reports whether the message must be rendered as a media
// group followed by a separate buttons message.
func (m *BotMessage) HasMediaGroup() bool {
	return len(m.Media) > 1
}
