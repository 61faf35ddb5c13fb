package blueprint

import (
	"cmp"
	"math"
	"slices"
)

// RowTolerance is the vertical distance under which two fields are read as
// sitting on the same row.
const RowTolerance = 30

// RenderOrder returns fields in reading order: top to bottom, and left to
// right for fields whose y values differ by less than RowTolerance. The sort
// is stable and the input slice is not modified.
func RenderOrder(fields []Field) []Field {
	ordered := slices.Clone(fields)
	slices.SortStableFunc(ordered, compareReadingOrder)
	return ordered
}

// SameRow reports whether a and b fall within RowTolerance vertically.
func SameRow(a, b Position) bool {
	return math.Abs(a.Y-b.Y) < RowTolerance
}

func compareReadingOrder(a, b Field) int {
	if SameRow(a.Position, b.Position) {
		return cmp.Compare(a.Position.X, b.Position.X)
	}
	return cmp.Compare(a.Position.Y, b.Position.Y)
}
