package entities

import (
	"fmt"
	"math"
)

// CellType is the tag of a query value cell.
type CellType int

// The five storage classes a query value cell can hold.
// Values outside this set are never produced by the engine adapters but are
// still representable so that conversion code can reject them explicitly.
const (
	CellInteger CellType = 1
	CellFloat   CellType = 2
	CellText    CellType = 3
	CellBlob    CellType = 4
	CellNull    CellType = 5
)

// String returns the SQL storage class name.
func (t CellType) String() string {
	switch t {
	case CellInteger:
		return "INTEGER"
	case CellFloat:
		return "FLOAT"
	case CellText:
		return "TEXT"
	case CellBlob:
		return "BLOB"
	case CellNull:
		return "NULL"
	default:
		return fmt.Sprintf("CellType(%d)", int(t))
	}
}

// Valid reports whether t is one of the five supported storage classes.
func (t CellType) Valid() bool {
	return t >= CellInteger && t <= CellNull
}

// Cell is a value copy of one SQL argument or result.
// The zero value is a NULL cell.
type Cell struct {
	bytes []byte
	i     int64
	f     float64
	typ   CellType
}

// IntegerCell returns an INTEGER cell.
func IntegerCell(v int64) Cell { return Cell{typ: CellInteger, i: v} }

// FloatCell returns a FLOAT cell.
func FloatCell(v float64) Cell { return Cell{typ: CellFloat, f: v} }

// TextCell returns a TEXT cell holding the UTF-8 bytes of s.
func TextCell(s string) Cell { return Cell{typ: CellText, bytes: []byte(s)} }

// RawTextCell returns a TEXT cell holding a copy of b.
// b is not checked for UTF-8 validity.
func RawTextCell(b []byte) Cell { return Cell{typ: CellText, bytes: cloneBytes(b)} }

// BlobCell returns a BLOB cell holding a copy of b.
func BlobCell(b []byte) Cell { return Cell{typ: CellBlob, bytes: cloneBytes(b)} }

// NullCell returns a NULL cell.
func NullCell() Cell { return Cell{typ: CellNull} }

// Type returns the cell tag. The zero Cell reports CellNull.
func (c Cell) Type() CellType {
	if c.typ == 0 {
		return CellNull
	}
	return c.typ
}

// Int64 returns the integer payload.
func (c Cell) Int64() int64 { return c.i }

// Float returns the float payload.
func (c Cell) Float() float64 { return c.f }

// RawText returns the text payload. The slice must not be modified.
func (c Cell) RawText() []byte {
	if c.typ != CellText {
		return nil
	}
	return c.bytes
}

// RawBlob returns the blob payload. The slice must not be modified.
func (c Cell) RawBlob() []byte {
	if c.typ != CellBlob {
		return nil
	}
	return c.bytes
}

// Text returns the text payload as a string.
func (c Cell) Text() string { return string(c.RawText()) }

// Equal reports whether two cells hold the same tag and the same bits.
// Floats are compared by bit pattern, so NaN equals itself and 0 != -0.
func (c Cell) Equal(o Cell) bool {
	if c.Type() != o.Type() {
		return false
	}
	switch c.Type() {
	case CellInteger:
		return c.i == o.i
	case CellFloat:
		return math.Float64bits(c.f) == math.Float64bits(o.f)
	case CellText, CellBlob:
		return string(c.bytes) == string(o.bytes)
	default:
		return true
	}
}

// Any returns the payload as a Go value: int64, float64, string, []byte or nil.
func (c Cell) Any() any {
	switch c.Type() {
	case CellInteger:
		return c.i
	case CellFloat:
		return c.f
	case CellText:
		return string(c.bytes)
	case CellBlob:
		return cloneBytes(c.bytes)
	default:
		return nil
	}
}

// String implements fmt.Stringer.
func (c Cell) String() string {
	switch c.Type() {
	case CellInteger:
		return fmt.Sprintf("INTEGER(%d)", c.i)
	case CellFloat:
		return fmt.Sprintf("FLOAT(%g)", c.f)
	case CellText:
		return fmt.Sprintf("TEXT(%q)", c.bytes)
	case CellBlob:
		return fmt.Sprintf("BLOB(%d bytes)", len(c.bytes))
	default:
		return "NULL"
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
