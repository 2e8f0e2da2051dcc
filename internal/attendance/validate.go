package attendance

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Benedict258/Tend-X/internal/space"
)

// emailPattern mirrors what the check-in form enforces client-side: a
// local part, "@", and a domain containing at least one dot.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError carries field-scoped validation failures. Nothing reaches
// the store while any are present.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return "invalid fields: " + strings.Join(keys, ", ")
}

// FormField describes one input the check-in form must render, in order.
type FormField struct {
	Key      string          `json:"key"`
	Label    string          `json:"label"`
	Type     space.FieldType `json:"type"`
	Required bool            `json:"required"`
}

// FormSchema returns the full ordered field list for a space's check-in form:
// the fixed name and email fields first, then each custom field in stored
// order under its normalized key.
func FormSchema(schema space.FieldSchema) []FormField {
	fields := []FormField{
		{Key: space.KeyName, Label: "Name", Type: space.FieldText, Required: true},
		{Key: space.KeyEmail, Label: "Email", Type: space.FieldEmail, Required: true},
	}
	for _, f := range schema {
		fields = append(fields, FormField{
			Key:      f.Key(),
			Label:    f.Name,
			Type:     f.Type,
			Required: f.Required,
		})
	}
	return fields
}

// ValidateSubmission checks submitted values against a space's schema and
// returns the payload to persist, keyed by normalized field names. Optional
// fields left empty are stored as empty strings. When two custom fields
// normalize to the same key the later one wins, matching form render order.
func ValidateSubmission(schema space.FieldSchema, values map[string]string) (map[string]string, *ValidationError) {
	problems := map[string]string{}
	payload := map[string]string{}

	for _, f := range FormSchema(schema) {
		raw := strings.TrimSpace(values[f.Key])
		if raw == "" {
			if f.Required {
				problems[f.Key] = f.Label + " is required"
			} else {
				payload[f.Key] = ""
			}
			continue
		}
		switch f.Type {
		case space.FieldEmail:
			if !emailPattern.MatchString(raw) {
				problems[f.Key] = f.Label + " must be a valid email address"
				continue
			}
		case space.FieldNumber:
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				problems[f.Key] = f.Label + " must be a number"
				continue
			}
		}
		payload[f.Key] = raw
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Fields: problems}
	}
	return payload, nil
}
