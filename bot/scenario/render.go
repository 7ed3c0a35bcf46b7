package scenario

import (
	"regexp"

	"StaffBot/entity"
)

var placeholderRe = regexp.MustCompile(`\$\{([a-zA-Z0-9_]+)\}`)

// Interpolate substitutes ${variable} placeholders with collected values.
// Unknown variables render as an empty string.
func Interpolate(text string, data map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		v, ok := data[name]
		if !ok {
			return ""
		}
		return stringify(v)
	})
}

// RenderMessage materializes a step's message template against collected
// data: text and media captions are interpolated, buttons pass through.
func (s *Step) RenderMessage(data map[string]any) entity.BotMessage {
	msg := entity.BotMessage{
		Text:    Interpolate(s.Message.Text, data),
		Buttons: s.Message.Buttons,
	}

	if len(s.Message.Media) > 0 {
		msg.Media = make([]entity.MediaItem, len(s.Message.Media))
		for i, item := range s.Message.Media {
			item.Caption = Interpolate(item.Caption, data)
			msg.Media[i] = item
		}
	}

	return msg
}
