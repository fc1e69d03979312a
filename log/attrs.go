package log

import (
	"log/slog"

	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/domain/errors"
)

// Cell returns an attribute group holding the tag and value of c.
// Blobs are logged by length only.
func Cell(key string, c entities.Cell) slog.Attr {
	switch c.Type() {
	case entities.CellInteger:
		return slog.Group(key, "type", c.Type().String(), "value", c.Int64())
	case entities.CellFloat:
		return slog.Group(key, "type", c.Type().String(), "value", c.Float())
	case entities.CellText:
		return slog.Group(key, "type", c.Type().String(), "value", c.Text())
	case entities.CellBlob:
		return slog.Group(key, "type", c.Type().String(), "len", len(c.RawBlob()))
	default:
		return slog.Group(key, "type", c.Type().String())
	}
}

// Error returns an "error" attribute group with the structured detail of err:
// its category, code and message.
func Error(err error) slog.Attr {
	d := errors.ToErrorDetail(err)
	if d == nil {
		return slog.Attr{}
	}
	attrs := []any{"type", d.Type, "message", d.Message}
	if d.Code != "" {
		attrs = append(attrs, "code", d.Code)
	}
	return slog.Group("error", attrs...)
}
