package contract

import (
	"fmt"

	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
)

// KindFor returns the value kind a field of type t stores. Signatures hold
// the typed name as text.
func KindFor(t blueprint.FieldType) ValueKind {
	switch t {
	case blueprint.FieldCheckbox:
		return KindBool
	case blueprint.FieldDate:
		return KindDate
	case blueprint.FieldText, blueprint.FieldSignature:
		return KindText
	default:
		return KindUnset
	}
}

// TypeValues converts values to the kinds of the blueprint fields they
// answer. Labels with no matching field are kept as given. A value that
// cannot take its field's kind is rejected with CONTRACT_VALUE_INVALID.
func TypeValues(bp blueprint.Blueprint, values Values) (Values, error) {
	out := values.Clone()
	for _, field := range bp.Fields {
		value, ok := values[field.Label]
		if !ok {
			continue
		}
		typed, err := coerce(KindFor(field.Type), value)
		if err != nil {
			return nil, valueInvalid(field.Label, KindFor(field.Type), err)
		}
		out[field.Label] = typed
	}
	return out, nil
}

// ApplyFieldTypes is TypeValues for stored data: values that cannot take
// their field's kind are kept unchanged.
func ApplyFieldTypes(bp blueprint.Blueprint, values Values) Values {
	out := values.Clone()
	for _, field := range bp.Fields {
		value, ok := values[field.Label]
		if !ok {
			continue
		}
		if typed, err := coerce(KindFor(field.Type), value); err == nil {
			out[field.Label] = typed
		}
	}
	return out
}

func coerce(kind ValueKind, v Value) (Value, error) {
	if v.Kind() == KindUnset || kind == KindUnset {
		return v, nil
	}
	if v.Kind() == kind && kind != KindDate {
		return v, nil
	}
	if v.Kind() == KindBool {
		return Value{}, fmt.Errorf("got a %s", v.Kind())
	}
	// Text and dates carry their raw string.
	return ParseValue(kind, v.text)
}
