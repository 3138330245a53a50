// Package attribute defines category attribute schemas and validates
// dynamically typed attribute values against them. It is stateless: every
// function is a pure check with no side effects.
package attribute

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hawker-io/hawker/internal/shared"
)

// Type enumerates the supported attribute value shapes.
type Type string

const (
	TypeText    Type = "text"
	TypeSelect  Type = "select"
	TypeBoolean Type = "boolean"
	TypeNumber  Type = "number"
)

// Known reports whether t is a recognised attribute type.
func (t Type) Known() bool {
	switch t {
	case TypeText, TypeSelect, TypeBoolean, TypeNumber:
		return true
	}
	return false
}

// Definition describes one attribute dimension on a category. Name is unique
// within the owning category; Options is mandatory for select definitions.
type Definition struct {
	ID           uuid.UUID `json:"id"`
	CategoryID   uuid.UUID `json:"category_id"`
	Name         string    `json:"name"`
	Type         Type      `json:"type"`
	Required     bool      `json:"required"`
	Options      []string  `json:"options,omitempty"`
	DefaultValue *Value    `json:"default_value,omitempty"`
	SortOrder    int       `json:"sort_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidateDefinition checks a definition before it is attached to a category.
func ValidateDefinition(def Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return shared.Validationf("attribute name is required")
	}
	if !def.Type.Known() {
		return shared.Validationf("unknown attribute type %q", def.Type)
	}
	if def.Type == TypeSelect && len(def.Options) == 0 {
		return shared.Validationf("select attribute %q requires options", def.Name)
	}
	if def.Type != TypeSelect && len(def.Options) > 0 {
		return shared.Validationf("attribute %q: options are only valid for select", def.Name)
	}
	if def.DefaultValue != nil {
		if _, err := Normalize(def, def.DefaultValue.Raw()); err != nil {
			return shared.Validationf("attribute %q: invalid default value", def.Name)
		}
	}
	return nil
}

// Value is a tagged variant over the four attribute types. The zero Value is
// invalid; construct through Normalize or the typed constructors.
type Value struct {
	kind    Type
	text    string
	boolean bool
	number  float64
}

// Text builds a text value.
func Text(s string) Value { return Value{kind: TypeText, text: s} }

// Option builds a select value.
func Option(s string) Value { return Value{kind: TypeSelect, text: s} }

// Boolean builds a boolean value.
func Boolean(b bool) Value { return Value{kind: TypeBoolean, boolean: b} }

// Number builds a number value.
func Number(f float64) Value { return Value{kind: TypeNumber, number: f} }

// Kind returns the value's type tag.
func (v Value) Kind() Type { return v.kind }

// Raw returns the value in its native Go representation, matching what
// encoding/json produces when decoding into any.
func (v Value) Raw() any {
	switch v.kind {
	case TypeBoolean:
		return v.boolean
	case TypeNumber:
		return v.number
	default:
		return v.text
	}
}

// String returns the text for text/select values, empty otherwise.
func (v Value) String() string { return v.text }

// MarshalJSON emits the native JSON shape for the value's type.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// UnmarshalJSON decodes into an untyped value; the concrete tag is fixed on
// Normalize against a definition. Bare strings decode as text, booleans as
// boolean, numbers as number.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		*v = Text(t)
	case bool:
		*v = Boolean(t)
	case float64:
		*v = Number(t)
	default:
		return shared.Validationf("unsupported attribute value %v", raw)
	}
	return nil
}

// Normalize type-checks raw against def and returns the tagged value. raw is
// expected in encoding/json shapes: string, bool or float64. A Value is also
// accepted and re-checked, so defaults round-trip through the same path.
func Normalize(def Definition, raw any) (Value, error) {
	if v, ok := raw.(Value); ok {
		raw = v.Raw()
	}
	switch def.Type {
	case TypeText:
		s, ok := raw.(string)
		if !ok {
			return Value{}, shared.Validationf("attribute %q expects text", def.Name)
		}
		return Text(s), nil
	case TypeSelect:
		s, ok := raw.(string)
		if !ok {
			return Value{}, shared.Validationf("attribute %q expects one of its options", def.Name)
		}
		for _, opt := range def.Options {
			if opt == s {
				return Option(s), nil
			}
		}
		return Value{}, shared.Validationf("attribute %q: %q is not a valid option", def.Name, s)
	case TypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, shared.Validationf("attribute %q expects a boolean", def.Name)
		}
		return Boolean(b), nil
	case TypeNumber:
		switch n := raw.(type) {
		case float64:
			return Number(n), nil
		case int:
			return Number(float64(n)), nil
		case int64:
			return Number(float64(n)), nil
		}
		return Value{}, shared.Validationf("attribute %q expects a number", def.Name)
	default:
		return Value{}, shared.Validationf("unknown attribute type %q", def.Type)
	}
}
