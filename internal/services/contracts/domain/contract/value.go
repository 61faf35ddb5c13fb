package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format stored for date fields.
const DateLayout = "2006-01-02"

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindUnset ValueKind = iota
	KindText
	KindBool
	KindDate
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	default:
		return "unset"
	}
}

// Value is a filled-in field value: text, a boolean, or a calendar date.
// The zero Value is unset.
type Value struct {
	kind ValueKind
	text string
	flag bool
}

// TextValue wraps free text.
func TextValue(s string) Value { return Value{kind: KindText, text: s} }

// BoolValue wraps a checkbox answer.
func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }

// DateValue wraps a date string, normally in DateLayout.
func DateValue(s string) Value { return Value{kind: KindDate, text: s} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// Text returns the text of a Text or Date value.
func (v Value) Text() (string, bool) {
	if v.kind != KindText && v.kind != KindDate {
		return "", false
	}
	return v.text, true
}

// Bool returns the boolean of a Bool value.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// Date parses a Date value.
func (v Value) Date() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	parsed, err := time.Parse(DateLayout, v.text)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// Present reports whether v answers a required field. Any boolean counts,
// including false; text and dates must be non-empty.
func (v Value) Present() bool {
	switch v.kind {
	case KindBool:
		return true
	case KindText, KindDate:
		return v.text != ""
	default:
		return false
	}
}

// String renders v for documents and logs.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.flag {
			return "Yes"
		}
		return "No"
	case KindText, KindDate:
		return v.text
	default:
		return ""
	}
}

// MarshalJSON encodes booleans as JSON booleans and everything else as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.flag)
	case KindText, KindDate:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar. Strings and numbers become text and
// null stays unset; TypeValues assigns date kinds from the blueprint.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Value{}
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = BoolValue(data[0] == 't')
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("value must be a string, boolean, or number: %s", data)
		}
		*v = TextValue(n.String())
	}
	return nil
}

// ParseValue decodes s according to kind, used where the field type is known.
func ParseValue(kind ValueKind, s string) (Value, error) {
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return Value{}, fmt.Errorf("parse bool value %q: %w", s, err)
		}
		return BoolValue(b), nil
	case KindDate:
		s = strings.TrimSpace(s)
		if s != "" {
			if _, err := time.Parse(DateLayout, s); err != nil {
				return Value{}, fmt.Errorf("parse date value %q: %w", s, err)
			}
		}
		return DateValue(s), nil
	case KindText:
		return TextValue(s), nil
	default:
		return Value{}, fmt.Errorf("unsupported value kind %v", kind)
	}
}

// Values maps a field label to its filled-in value. Keys are labels, not
// field ids, so renaming a field label orphans its stored value.
type Values map[string]Value

// Clone returns an independent copy; nil clones to an empty map.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	maps.Copy(out, v)
	return out
}

// Merge returns a copy of v overlaid with updates.
func (v Values) Merge(updates Values) Values {
	out := v.Clone()
	maps.Copy(out, updates)
	return out
}
