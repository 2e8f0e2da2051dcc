package space

import (
	"testing"
	"time"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Student ID", "student_id"},
		{"student_id", "student_id"},
		{"Phone  Number", "phone_number"},
		{"  Roll\tNo ", "roll_no"},
		{"EMAIL", "email"},
		{"already_normal", "already_normal"},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFieldSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  FieldSchema
		wantErr bool
	}{
		{name: "empty schema ok", schema: FieldSchema{}},
		{name: "single field", schema: FieldSchema{{ID: "1", Name: "Student ID", Type: FieldNumber, Required: true}}},
		{name: "all types", schema: FieldSchema{
			{ID: "1", Name: "Note", Type: FieldText},
			{ID: "2", Name: "Alt Email", Type: FieldEmail},
			{ID: "3", Name: "Age", Type: FieldNumber},
		}},
		{name: "unknown type", schema: FieldSchema{{ID: "1", Name: "X", Type: "checkbox"}}, wantErr: true},
		{name: "blank name", schema: FieldSchema{{ID: "1", Name: "  ", Type: FieldText}}, wantErr: true},
		{name: "collides with fixed name", schema: FieldSchema{{ID: "1", Name: "Name", Type: FieldText}}, wantErr: true},
		{name: "collides with fixed email", schema: FieldSchema{{ID: "1", Name: "EMAIL", Type: FieldEmail}}, wantErr: true},
		{name: "normalized collision", schema: FieldSchema{
			{ID: "1", Name: "Phone Number", Type: FieldText},
			{ID: "2", Name: "phone number", Type: FieldText},
		}, wantErr: true},
		{name: "underscore vs space collision", schema: FieldSchema{
			{ID: "1", Name: "Phone Number", Type: FieldText},
			{ID: "2", Name: "phone_number", Type: FieldText},
		}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpaceEnded(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if (&Space{}).Ended(now) {
		t.Error("space without end time should never end")
	}
	if !(&Space{EndTime: &past}).Ended(now) {
		t.Error("space with past end time should be ended")
	}
	if (&Space{EndTime: &future}).Ended(now) {
		t.Error("space with future end time should not be ended")
	}
	if (&Space{EndTime: &now}).Ended(now) {
		t.Error("end time must be strictly before now to count as ended")
	}
}
