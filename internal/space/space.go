package space

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Space type values.
const (
	TypeClass  = "Class"
	TypeEvent  = "Event"
	TypeCustom = "Custom"
)

// Space status values. Only open spaces accept submissions.
const (
	StatusOpen   = "open"
	StatusPaused = "paused"
	StatusClosed = "closed"
)

// FieldType tags a custom field and drives its validation.
type FieldType string

// Supported custom field types.
const (
	FieldText   FieldType = "text"
	FieldEmail  FieldType = "email"
	FieldNumber FieldType = "number"
)

// Field is one admin-defined input on a space's check-in form.
type Field struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// Key returns the storage key this field's value is persisted under.
func (f Field) Key() string {
	return NormalizeKey(f.Name)
}

// FieldSchema is the ordered list of custom fields on a space. Order is
// significant: it defines both form order and export column order.
type FieldSchema []Field

// Validate checks the schema at creation time. It rejects unknown types,
// nameless fields, names that collide with the fixed name/email pair, and two
// fields whose names normalize to the same key. Without the last check a
// colliding pair would silently overwrite one value with the other in every
// submitted payload.
func (s FieldSchema) Validate() error {
	seen := map[string]string{
		KeyName:  "name",
		KeyEmail: "email",
	}
	for i, f := range s {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("field %d: name required", i)
		}
		switch f.Type {
		case FieldText, FieldEmail, FieldNumber:
		default:
			return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
		key := f.Key()
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("field %q: key %q already used by %q", f.Name, key, prev)
		}
		seen[key] = f.Name
	}
	return nil
}

// Storage keys of the two fixed form fields.
const (
	KeyName  = "name"
	KeyEmail = "email"
)

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeKey converts a field display name to its storage key: lower-cased,
// runs of whitespace replaced with a single underscore.
func NormalizeKey(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
}

// Space is a named attendance session.
type Space struct {
	ID             string      `json:"id"`
	OwnerID        string      `json:"owner_id"`
	Title          string      `json:"title"`
	Type           string      `json:"type"`
	RequiredFields FieldSchema `json:"required_fields"`
	UniqueCode     string      `json:"unique_code"`
	Status         string      `json:"status"`
	StartTime      *time.Time  `json:"start_time,omitempty"`
	EndTime        *time.Time  `json:"end_time,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Ended reports whether the space's end time has passed. A space with no end
// time never ends.
func (sp *Space) Ended(now time.Time) bool {
	return sp.EndTime != nil && sp.EndTime.Before(now)
}
