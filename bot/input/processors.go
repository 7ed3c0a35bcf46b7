package input

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"StaffBot/bot/scenario"
	"StaffBot/entity"
	"StaffBot/internal/errs"
)

const dateLayout = "2006-01-02"

// TextProcessor passes message text through, optionally matching it
// against the step's regex pattern.
type TextProcessor struct{}

func (TextProcessor) CanProcess(t scenario.InputType) bool {
	return t == scenario.InputText
}

func (TextProcessor) Process(in entity.Message, step *scenario.Step) (any, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, errs.Validation("Please send a text message.")
	}

	if v := step.Input.Validation; v != nil && v.Pattern != "" {
		// Pattern validity is checked at scenario load.
		re := regexp.MustCompile(v.Pattern)
		if !re.MatchString(text) {
			return nil, errs.Validation("That doesn't look right, please try again.")
		}
	}

	return text, nil
}

// ButtonProcessor accepts only callback values offered by the current
// step's buttons.
type ButtonProcessor struct{}

func (ButtonProcessor) CanProcess(t scenario.InputType) bool {
	return t == scenario.InputButton
}

func (ButtonProcessor) Process(in entity.Message, step *scenario.Step) (any, error) {
	value := in.CallbackData
	if value == "" {
		// Some platforms deliver button presses as plain text.
		value = strings.TrimSpace(in.Text)
	}
	if value == "" {
		return nil, errs.Validation("Please pick one of the options.")
	}

	for _, row := range step.Message.Buttons {
		for _, btn := range row {
			if btn.Value == value || btn.Text == value {
				return btn.Value, nil
			}
		}
	}

	return nil, errs.Validation("Please pick one of the offered options.")
}

// FileProcessor requires a resolvable media handle.
type FileProcessor struct{}

func (FileProcessor) CanProcess(t scenario.InputType) bool {
	return t == scenario.InputFile
}

func (FileProcessor) Process(in entity.Message, step *scenario.Step) (any, error) {
	if in.FileID == "" {
		return nil, errs.Validation("Please attach a file.")
	}
	return in.FileID, nil
}

// LocationProcessor checks a shared location against optional lat/lon
// bounds and collects it as "lat,lon".
type LocationProcessor struct{}

func (LocationProcessor) CanProcess(t scenario.InputType) bool {
	return t == scenario.InputLocation
}

func (LocationProcessor) Process(in entity.Message, step *scenario.Step) (any, error) {
	loc := in.Location
	if loc == nil {
		return nil, errs.Validation("Please share your location.")
	}

	if v := step.Input.Validation; v != nil {
		if (v.MinLat != nil && loc.Latitude < *v.MinLat) ||
			(v.MaxLat != nil && loc.Latitude > *v.MaxLat) ||
			(v.MinLon != nil && loc.Longitude < *v.MinLon) ||
			(v.MaxLon != nil && loc.Longitude > *v.MaxLon) {
			return nil, errs.Validation("That location is outside the allowed area.")
		}
	}

	return fmt.Sprintf("%f,%f", loc.Latitude, loc.Longitude), nil
}

// CalendarProcessor parses a YYYY-MM-DD date and checks the step's
// min/max bounds. Out-of-range and unparsable input each get a specific
// message.
type CalendarProcessor struct{}

func (CalendarProcessor) CanProcess(t scenario.InputType) bool {
	return t == scenario.InputCalendar
}

func (CalendarProcessor) Process(in entity.Message, step *scenario.Step) (any, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		text = in.CallbackData
	}

	date, err := time.Parse(dateLayout, text)
	if err != nil {
		return nil, errs.Validation("Please send a date as YYYY-MM-DD, for example 2024-08-10.")
	}

	if v := step.Input.Validation; v != nil {
		// Bound validity is checked at scenario load.
		if v.MinDate != "" {
			min, _ := time.Parse(dateLayout, v.MinDate)
			if date.Before(min) {
				return nil, errs.Validation(fmt.Sprintf("The date must not be before %s.", v.MinDate))
			}
		}
		if v.MaxDate != "" {
			max, _ := time.Parse(dateLayout, v.MaxDate)
			if date.After(max) {
				return nil, errs.Validation(fmt.Sprintf("The date must not be after %s.", v.MaxDate))
			}
		}
	}

	return date.Format(dateLayout), nil
}
