// Package schema checks registration answers against an event's form fields
// and checks the form field definitions themselves when an event is saved.
package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"clubevents/internal/model"
)

// Violation describes one field that failed validation.
type Violation struct {
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// ValidationError lists every violated field in schema order.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	v := e.Violations[0]
	return fmt.Sprintf("field '%s' %s", v.Label, v.Reason)
}

// Field returns the label of the first violated field.
func (e *ValidationError) Field() string {
	if len(e.Violations) == 0 {
		return ""
	}
	return e.Violations[0].Label
}

// Fields returns the labels of all violated fields.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Label)
	}
	return out
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

const (
	reasonRequired   = "is required"
	reasonNotOption  = "must be one of the declared options"
	reasonWrongType  = "has an unsupported value type"
	reasonEmptyLabel = "must have a label"
	reasonDupID      = "has a duplicate id"
	reasonDupLabel   = "has a duplicate label"
	reasonBadKind    = "has an unknown type"
	reasonNoOptions  = "must declare at least one option"
)

// Validate checks answers against fields. Each field's answer is looked up
// by field id first and then by label; keys that match no field are ignored.
// The normalized map is keyed by label and omits absent optional fields.
func Validate(fields []model.FormField, answers map[string]any) (model.Answers, error) {
	out := model.Answers{}
	var violations []Violation

	for _, f := range fields {
		raw, present := lookup(f, answers)

		if f.Kind == model.KindCheckbox {
			checked, ok := asBool(raw, present)
			if !ok {
				violations = append(violations, Violation{Label: f.Label, Reason: reasonWrongType})
				continue
			}
			if f.Required && !checked {
				violations = append(violations, Violation{Label: f.Label, Reason: reasonRequired})
				continue
			}
			if present && raw != nil {
				out[f.Label] = checked
			}
			continue
		}

		value, ok := asString(raw, present)
		if !ok {
			violations = append(violations, Violation{Label: f.Label, Reason: reasonWrongType})
			continue
		}
		if value == "" {
			if f.Required {
				violations = append(violations, Violation{Label: f.Label, Reason: reasonRequired})
			}
			continue
		}
		if f.Kind == model.KindSelect && !contains(f.Options, value) {
			violations = append(violations, Violation{Label: f.Label, Reason: reasonNotOption})
			continue
		}
		out[f.Label] = value
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return out, nil
}

func lookup(f model.FormField, answers map[string]any) (any, bool) {
	if f.ID != "" {
		if v, ok := answers[f.ID]; ok {
			return v, true
		}
	}
	v, ok := answers[f.Label]
	return v, ok
}

func asString(raw any, present bool) (string, bool) {
	if !present || raw == nil {
		return "", true
	}
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func asBool(raw any, present bool) (bool, bool) {
	if !present || raw == nil {
		return false, true
	}
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		if strings.TrimSpace(v) == "" {
			return false, true
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// ValidateDefinitions normalizes a form field list submitted by an
// administrator: labels and options are trimmed, missing ids are generated
// and blank options are dropped (all options, for non-select fields).
// Labels must be unique because they key the stored answers.
func ValidateDefinitions(fields []model.FormField) (model.FormFields, error) {
	out := make(model.FormFields, 0, len(fields))
	var violations []Violation
	seenIDs := make(map[string]struct{}, len(fields))
	seenLabels := make(map[string]struct{}, len(fields))

	for i, f := range fields {
		f.Label = strings.TrimSpace(f.Label)
		f.ID = strings.TrimSpace(f.ID)
		name := f.Label
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
			violations = append(violations, Violation{Label: name, Reason: reasonEmptyLabel})
		}
		if !f.Kind.Valid() {
			violations = append(violations, Violation{Label: name, Reason: reasonBadKind})
		}

		if f.ID == "" {
			f.ID = uuid.NewString()
		}
		if _, dup := seenIDs[f.ID]; dup {
			violations = append(violations, Violation{Label: name, Reason: reasonDupID})
		}
		seenIDs[f.ID] = struct{}{}

		if f.Label != "" {
			if _, dup := seenLabels[f.Label]; dup {
				violations = append(violations, Violation{Label: name, Reason: reasonDupLabel})
			}
			seenLabels[f.Label] = struct{}{}
		}

		if f.Kind == model.KindSelect {
			opts := make([]string, 0, len(f.Options))
			for _, o := range f.Options {
				o = strings.TrimSpace(o)
				if o == "" {
					continue
				}
				opts = append(opts, o)
			}
			if len(opts) == 0 {
				violations = append(violations, Violation{Label: name, Reason: reasonNoOptions})
			}
			f.Options = opts
		} else {
			f.Options = nil
		}

		out = append(out, f)
	}

	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	return out, nil
}
