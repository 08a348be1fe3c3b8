package drafts

import (
	"strings"
	"unicode/utf8"
)

// MinDescriptionLength is the minimum trimmed description length, in characters
const MinDescriptionLength = 10

// Validate evaluates the rules of step against d and returns field -> message.
// An empty map means the step may be left. Only the details step carries rules.
func Validate(d EventDraft, step Step) map[string]string {
	errs := map[string]string{}
	if step != StepDetails {
		return errs
	}

	if strings.TrimSpace(d.Name) == "" {
		errs[FieldName] = "Event name is required"
	}

	description := strings.TrimSpace(d.Description)
	switch {
	case description == "":
		errs[FieldDescription] = "Description is required"
	case utf8.RuneCountInString(description) < MinDescriptionLength:
		errs[FieldDescription] = "Description must be at least 10 characters"
	}

	if strings.TrimSpace(d.Date) == "" {
		errs[FieldDate] = "Date is required"
	} else if strings.TrimSpace(d.Time) == "" {
		errs[FieldTime] = "Time is required"
	}

	if strings.TrimSpace(d.Location) == "" {
		errs[FieldLocation] = "Location is required"
	}
	if strings.TrimSpace(d.EventType) == "" {
		errs[FieldEventType] = "Event type is required"
	}
	if d.IsPrivate && strings.TrimSpace(d.Password) == "" {
		errs[FieldPassword] = "Password is required for private events"
	}
	if d.IsPaid && len(d.Tickets) == 0 {
		errs[FieldTickets] = "Add at least one ticket type for a paid event"
	}

	return errs
}
