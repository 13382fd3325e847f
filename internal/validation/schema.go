// Package validation holds the declarative field constraints of every
// editable entity. Validation is pure: the same values always produce the
// same Result and nothing leaves the process.
package validation

import (
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"freedom/internal/core"
)

// Values is a draft keyed by field name, as submitted by a form.
type Values map[string]string

// Clone returns an independent copy of the values.
func (v Values) Clone() Values {
	return maps.Clone(v)
}

// Result maps a field name to its error message. Valid fields are absent.
type Result map[string]string

// Valid reports whether no field carries an error.
func (r Result) Valid() bool {
	return len(r) == 0
}

// Error returns the message for field, or "" when the field is valid.
func (r Result) Error(field string) string {
	return r[field]
}

// Equal reports whether both results carry the same messages for the same
// fields.
func (r Result) Equal(other Result) bool {
	return maps.Equal(r, other)
}

type kind int

const (
	kindString kind = iota
	kindNumber
)

// Field is a single constrained field. Build one with String or Number and
// chain the constraints, in the order they should be checked.
type Field struct {
	name     string
	kind     kind
	trim     bool
	required bool
	max      int
	integer  bool
	positive bool
}

func String(name string) *Field {
	return &Field{name: name, kind: kindString}
}

func Number(name string) *Field {
	return &Field{name: name, kind: kindNumber}
}

func (f *Field) Trim() *Field {
	f.trim = true
	return f
}

func (f *Field) Required() *Field {
	f.required = true
	return f
}

// Max limits the value to n characters.
func (f *Field) Max(n int) *Field {
	f.max = n
	return f
}

func (f *Field) Integer() *Field {
	f.integer = true
	return f
}

func (f *Field) Positive() *Field {
	f.positive = true
	return f
}

func (f *Field) Name() string {
	return f.name
}

// cast applies the field's transforms to a raw value.
func (f *Field) cast(raw string) string {
	if f.trim || f.kind == kindNumber {
		return strings.TrimSpace(raw)
	}
	return raw
}

// Check returns the first violated constraint's message, or "".
func (f *Field) Check(raw string) string {
	value := f.cast(raw)
	if value == "" {
		if f.required {
			return fmt.Sprintf("%s is a required field", f.name)
		}
		return ""
	}

	switch f.kind {
	case kindString:
		if f.max > 0 && utf8.RuneCountInString(value) > f.max {
			return fmt.Sprintf("%s must be at most %d characters", f.name, f.max)
		}
	case kindNumber:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return fmt.Sprintf("%s must be a number", f.name)
		}
		if f.integer && n != math.Trunc(n) {
			return fmt.Sprintf("%s must be an integer", f.name)
		}
		if f.integer && n > math.MaxInt32 {
			return fmt.Sprintf("%s must be at most %d", f.name, math.MaxInt32)
		}
		if f.integer && n < math.MinInt32 {
			return fmt.Sprintf("%s must be at least %d", f.name, math.MinInt32)
		}
		if f.positive && n <= 0 {
			return fmt.Sprintf("%s must be a positive number", f.name)
		}
	}
	return ""
}

// Schema is an ordered set of fields describing one entity.
type Schema struct {
	fields []*Field
}

func Object(fields ...*Field) Schema {
	return Schema{fields: fields}
}

// Fields returns the constrained field names in declaration order.
func (s Schema) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.name
	}
	return names
}

// Validate checks every field of the schema against values. Missing keys
// are treated as empty input.
func (s Schema) Validate(values Values) Result {
	result := Result{}
	for _, f := range s.fields {
		if msg := f.Check(values[f.name]); msg != "" {
			result[f.name] = msg
		}
	}
	return result
}

// Cast returns a copy of values with each field's transforms applied. Keys
// unknown to the schema are kept untouched.
func (s Schema) Cast(values Values) Values {
	out := values.Clone()
	if out == nil {
		out = Values{}
	}
	for _, f := range s.fields {
		if v, ok := out[f.name]; ok {
			out[f.name] = f.cast(v)
		}
	}
	return out
}

var (
	Account = Object(
		String("name").Trim().Required().Max(core.MaxAccountNameLength),
		Number("depositsPerYear").Required().Integer().Positive(),
	)

	Fund = Object(
		String("icon").Trim().Required().Max(core.MaxFundIconLength),
		String("name").Trim().Required().Max(core.MaxFundNameLength),
	)

	Login = Object(
		String("username").Trim().Required().Max(core.MaxUsernameLength),
	)
)
