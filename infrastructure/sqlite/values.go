package sqlite

import (
	"github.com/ncruces/go-sqlite3"
	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/domain/ports"
)

// value exposes an engine argument as a ports.Value.
type value struct {
	v sqlite3.Value
}

var _ ports.Value = value{}

func (v value) Type() entities.CellType { return cellType(v.v.Type()) }

func (v value) Int64() int64 { return v.v.Int64() }

func (v value) Float() float64 { return v.v.Float() }

func (v value) RawText() []byte { return v.v.RawText() }

func (v value) RawBlob() []byte { return v.v.RawBlob() }

// resultContext reports results through a sqlite3.Context. Text and blob
// results are copied by SQLite before the call returns.
type resultContext struct {
	ctx sqlite3.Context
}

var _ ports.ResultContext = resultContext{}

func (r resultContext) ResultInt64(v int64) { r.ctx.ResultInt64(v) }

func (r resultContext) ResultFloat(v float64) { r.ctx.ResultFloat(v) }

func (r resultContext) ResultText(v []byte) { r.ctx.ResultRawText(v) }

func (r resultContext) ResultBlob(v []byte) { r.ctx.ResultBlob(v) }

func (r resultContext) ResultNull() { r.ctx.ResultNull() }

func (r resultContext) ResultError(err error) { r.ctx.ResultError(err) }

// cellType maps a SQLite datatype to a cell tag. Anything else becomes the
// zero CellType, which the codec rejects.
func cellType(dt sqlite3.Datatype) entities.CellType {
	switch dt {
	case sqlite3.INTEGER:
		return entities.CellInteger
	case sqlite3.FLOAT:
		return entities.CellFloat
	case sqlite3.TEXT:
		return entities.CellText
	case sqlite3.BLOB:
		return entities.CellBlob
	case sqlite3.NULL:
		return entities.CellNull
	default:
		return 0
	}
}

func functionFlags(f entities.FunctionFlags) sqlite3.FunctionFlag {
	var flag sqlite3.FunctionFlag
	if f.Has(entities.FlagDeterministic) {
		flag |= sqlite3.DETERMINISTIC
	}
	if f.Has(entities.FlagDirectOnly) {
		flag |= sqlite3.DIRECTONLY
	}
	if f.Has(entities.FlagInnocuous) {
		flag |= sqlite3.INNOCUOUS
	}
	return flag
}

func bindCell(stmt *sqlite3.Stmt, param int, c entities.Cell) error {
	switch c.Type() {
	case entities.CellInteger:
		return stmt.BindInt64(param, c.Int64())
	case entities.CellFloat:
		return stmt.BindFloat(param, c.Float())
	case entities.CellText:
		return stmt.BindRawText(param, c.RawText())
	case entities.CellBlob:
		return stmt.BindBlob(param, c.RawBlob())
	default:
		return stmt.BindNull(param)
	}
}

func columnCell(stmt *sqlite3.Stmt, col int) entities.Cell {
	switch stmt.ColumnType(col) {
	case sqlite3.INTEGER:
		return entities.IntegerCell(stmt.ColumnInt64(col))
	case sqlite3.FLOAT:
		return entities.FloatCell(stmt.ColumnFloat(col))
	case sqlite3.TEXT:
		return entities.RawTextCell(stmt.ColumnRawText(col))
	case sqlite3.BLOB:
		return entities.BlobCell(stmt.ColumnRawBlob(col))
	default:
		return entities.NullCell()
	}
}
