// Package codec converts between engine value cells and host runtime objects.
//
// The conversion is stateless and strict: every cell tag and every object
// kind maps to exactly one counterpart, and anything outside the supported
// set is an error rather than a silent NULL or zero.
//
//	cell tag  host kind
//	--------  ---------
//	INTEGER   int
//	FLOAT     float
//	TEXT      str    (strict UTF-8 both ways)
//	BLOB      bytes
//	NULL      none
package codec

import (
	"errors"

	"github.com/reglet-dev/sqlbridge/domain/entities"
	domainerrors "github.com/reglet-dev/sqlbridge/domain/errors"
	"github.com/reglet-dev/sqlbridge/domain/ports"
	"github.com/reglet-dev/sqlbridge/hostrt"
)

// ToHostObject converts one argument cell into a new host object reference
// owned by the caller. The cell is only read.
//
// The caller must hold the runtime's interpreter lock.
func ToHostObject(rt *hostrt.Runtime, v ports.Value) (*hostrt.Object, error) {
	typ := v.Type()

	var (
		obj *hostrt.Object
		err error
	)
	switch typ {
	case entities.CellInteger:
		obj, err = rt.NewInt(v.Int64())
	case entities.CellFloat:
		obj, err = rt.NewFloat(v.Float())
	case entities.CellText:
		obj, err = rt.DecodeUTF8(v.RawText())
	case entities.CellBlob:
		obj, err = rt.NewBytes(v.RawBlob())
	case entities.CellNull:
		return rt.None(), nil
	default:
		return nil, &domainerrors.ConversionError{Type: typ.String(), Kind: domainerrors.UnsupportedType}
	}
	if err != nil {
		return nil, conversionError(typ.String(), err)
	}
	return obj, nil
}

// FromHostObject converts a borrowed host object into a result cell.
// The returned cell is a value copy; obj keeps its reference count.
//
// Kinds are checked in a fixed order and only none, int, float, str and
// bytes are accepted. bool, tuple, map, func and any kind added later fall
// through to UnsupportedType.
//
// The caller must hold the runtime's interpreter lock.
func FromHostObject(obj *hostrt.Object) (entities.Cell, error) {
	if obj == nil {
		return entities.Cell{}, &domainerrors.ConversionError{Type: "nil", Kind: domainerrors.UnsupportedType}
	}

	switch kind := obj.Kind(); kind {
	case hostrt.KindNone:
		return entities.NullCell(), nil
	case hostrt.KindInt:
		v, err := obj.Int64()
		if err != nil {
			return entities.Cell{}, conversionError(kind.String(), err)
		}
		return entities.IntegerCell(v), nil
	case hostrt.KindFloat:
		v, err := obj.Float64()
		if err != nil {
			return entities.Cell{}, conversionError(kind.String(), err)
		}
		return entities.FloatCell(v), nil
	case hostrt.KindStr:
		b, err := obj.UTF8()
		if err != nil {
			return entities.Cell{}, conversionError(kind.String(), err)
		}
		return entities.RawTextCell(b), nil
	case hostrt.KindBytes:
		b, err := obj.Bytes()
		if err != nil {
			return entities.Cell{}, conversionError(kind.String(), err)
		}
		return entities.BlobCell(b), nil
	default:
		return entities.Cell{}, &domainerrors.ConversionError{Type: kind.String(), Kind: domainerrors.UnsupportedType}
	}
}

// WriteResult reports c through the engine's result setter for its tag.
func WriteResult(rc ports.ResultContext, c entities.Cell) {
	switch c.Type() {
	case entities.CellInteger:
		rc.ResultInt64(c.Int64())
	case entities.CellFloat:
		rc.ResultFloat(c.Float())
	case entities.CellText:
		rc.ResultText(c.RawText())
	case entities.CellBlob:
		b := c.RawBlob()
		if b == nil {
			b = []byte{}
		}
		rc.ResultBlob(b)
	default:
		rc.ResultNull()
	}
}

func conversionError(typ string, err error) error {
	kind := domainerrors.UnsupportedType
	switch {
	case errors.Is(err, hostrt.ErrNoMemory):
		kind = domainerrors.Allocation
	case errors.Is(err, hostrt.ErrUnicode):
		kind = domainerrors.Encoding
	}
	return &domainerrors.ConversionError{Type: typ, Kind: kind, Err: err}
}
