package blueprint

import (
	"math"
	"strings"
)

// FieldType selects how a field is rendered and filled.
type FieldType string

const (
	FieldText      FieldType = "text"
	FieldDate      FieldType = "date"
	FieldCheckbox  FieldType = "checkbox"
	FieldSignature FieldType = "signature"
)

// Page geometry in points (A4 at 72dpi) and the footprint reserved for a
// field when clamping its top-left corner.
const (
	PageWidth       = 595
	PageHeight      = 842
	FieldFootprintW = 100
	FieldFootprintH = 40

	MaxX = PageWidth - FieldFootprintW
	MaxY = PageHeight - FieldFootprintH
)

// FieldTypes lists the supported field types in palette order.
func FieldTypes() []FieldType {
	return []FieldType{FieldText, FieldDate, FieldCheckbox, FieldSignature}
}

// ParseFieldType canonicalizes a field type name.
func ParseFieldType(value string) (FieldType, bool) {
	switch FieldType(strings.ToLower(strings.TrimSpace(value))) {
	case FieldText:
		return FieldText, true
	case FieldDate:
		return FieldDate, true
	case FieldCheckbox:
		return FieldCheckbox, true
	case FieldSignature:
		return FieldSignature, true
	default:
		return "", false
	}
}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldDate, FieldCheckbox, FieldSignature:
		return true
	default:
		return false
	}
}

// Title is the capitalized type name used in default labels.
func (t FieldType) Title() string {
	switch t {
	case FieldText:
		return "Text"
	case FieldDate:
		return "Date"
	case FieldCheckbox:
		return "Checkbox"
	case FieldSignature:
		return "Signature"
	default:
		return string(t)
	}
}

// DefaultSize returns the width and height a new field of type t gets. A zero
// dimension means the field sizes to its content.
func DefaultSize(t FieldType) (width, height float64) {
	switch t {
	case FieldSignature:
		return 200, 60
	case FieldCheckbox:
		return 0, 0
	default:
		return 180, 0
	}
}

// Position is the top-left corner of a field on the page.
type Position struct {
	X float64
	Y float64
}

// ClampPosition keeps p inside [0, MaxX] x [0, MaxY].
func ClampPosition(p Position) Position {
	return Position{
		X: clamp(p.X, MaxX),
		Y: clamp(p.Y, MaxY),
	}
}

// InBounds reports whether p already satisfies the page constraint.
func (p Position) InBounds() bool {
	return p == ClampPosition(p)
}

func clamp(v, upper float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(v, upper))
}

// Field is one labeled input slot on a blueprint. Label doubles as the key of
// the value a contract stores for this field.
type Field struct {
	ID       string
	Type     FieldType
	Label    string
	Position Position
	Required bool
	Width    float64
	Height   float64
}

// FieldInput describes a field to add. Zero Width/Height take the type
// defaults and a blank Label takes the "New <Type> Field" default.
type FieldInput struct {
	Type     FieldType
	Label    string
	Position Position
	Required bool
	Width    float64
	Height   float64
}

// FieldPatch is a partial field update; nil members are left unchanged.
type FieldPatch struct {
	Type     *FieldType
	Label    *string
	Position *Position
	Required *bool
	Width    *float64
	Height   *float64
}

// NewFieldDraft returns the input the editor palette uses when the index-th
// field of type t is dropped onto an empty area: stacked 60 points apart
// starting at (50, 80).
func NewFieldDraft(t FieldType, index int) FieldInput {
	if index < 0 {
		index = 0
	}
	width, height := DefaultSize(t)
	return FieldInput{
		Type:     t,
		Label:    defaultLabel(t),
		Position: ClampPosition(Position{X: 50, Y: float64(80 + index*60)}),
		Width:    width,
		Height:   height,
	}
}

func defaultLabel(t FieldType) string {
	return "New " + t.Title() + " Field"
}

func normalizeFieldInput(input FieldInput) (FieldInput, error) {
	fieldType, ok := ParseFieldType(string(input.Type))
	if !ok {
		return FieldInput{}, invalidFieldType(input.Type)
	}
	input.Type = fieldType
	input.Label = strings.TrimSpace(input.Label)
	if input.Label == "" {
		input.Label = defaultLabel(fieldType)
	}
	input.Position = ClampPosition(input.Position)
	defaultWidth, defaultHeight := DefaultSize(fieldType)
	if input.Width <= 0 {
		input.Width = defaultWidth
	}
	if input.Height <= 0 {
		input.Height = defaultHeight
	}
	return input, nil
}
