package beanload

import (
	"context"
	"database/sql"
)

// Cursor is the sequential row source produced by executing a query. It is
// supplied by the query executor; this package only consumes it. A Cursor is
// forward-only and is closed by the [Iterator] that owns it.
type Cursor interface {
	// Columns returns the result's column names in result order.
	Columns() ([]string, error)

	// Next advances to the next row, reporting whether one is available.
	Next() bool

	// Cell returns the raw text of column i in the current row, or nil
	// for a NULL cell.
	Cell(i int) (*string, error)

	// Err returns the error, if any, that stopped iteration.
	Err() error

	Close() error
}

// Source opens a Cursor on demand. Each call to OpenCursor runs the
// underlying query again.
type Source interface {
	OpenCursor(ctx context.Context) (Cursor, error)
}

// SQL returns a Source that runs query with args on db. Cells are read back
// as text, the form the conversion rules consume.
//
//	people, err := beanload.Collect[Person](ctx, nil, beanload.SQL(db, "SELECT id, name FROM person"))
func SQL(db *sql.DB, query string, args ...any) Source {
	return querySource{db: db, query: query, args: args}
}

// Prepared returns a Source that runs an already prepared statement with
// args.
func Prepared(stmt *sql.Stmt, args ...any) Source {
	return stmtSource{stmt: stmt, args: args}
}

type querySource struct {
	db    *sql.DB
	query string
	args  []any
}

func (s querySource) OpenCursor(ctx context.Context) (Cursor, error) {
	rows, err := s.db.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, err
	}
	return newRowsCursor(rows), nil
}

type stmtSource struct {
	stmt *sql.Stmt
	args []any
}

func (s stmtSource) OpenCursor(ctx context.Context) (Cursor, error) {
	rows, err := s.stmt.QueryContext(ctx, s.args...)
	if err != nil {
		return nil, err
	}
	return newRowsCursor(rows), nil
}

// rowsCursor adapts a sql.Rows to the Cursor interface, scanning each row
// into NullString cells on first access.
type rowsCursor struct {
	rows    *sql.Rows
	cells   []sql.NullString
	scanned bool
}

func newRowsCursor(rows *sql.Rows) *rowsCursor {
	return &rowsCursor{rows: rows}
}

func (c *rowsCursor) Columns() ([]string, error) {
	return c.rows.Columns()
}

func (c *rowsCursor) Next() bool {
	c.scanned = false
	return c.rows.Next()
}

func (c *rowsCursor) Cell(i int) (*string, error) {
	if !c.scanned {
		if err := c.scan(); err != nil {
			return nil, err
		}
	}
	if !c.cells[i].Valid {
		return nil, nil
	}
	return &c.cells[i].String, nil
}

// scan reads the whole current row as text.
func (c *rowsCursor) scan() error {
	if c.cells == nil {
		cols, err := c.rows.Columns()
		if err != nil {
			return err
		}
		c.cells = make([]sql.NullString, len(cols))
	}
	ptrs := make([]any, len(c.cells))
	for i := range c.cells {
		ptrs[i] = &c.cells[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return err
	}
	c.scanned = true
	return nil
}

func (c *rowsCursor) Err() error {
	return c.rows.Err()
}

func (c *rowsCursor) Close() error {
	return c.rows.Close()
}
