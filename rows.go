package sqlkit

import (
	"database/sql"
	"fmt"
)

// RowView is a per-row accessor bound to the sequence's current physical row
// and its 1-based position, so row-to-value mapping can report "row N" in
// errors. A RowView is only valid until the sequence advances again.
type RowView struct {
	rows *sql.Rows
	pos  int
}

// Pos returns the 1-based position of this row within the result set.
func (rv *RowView) Pos() int { return rv.pos }

// Scan reads the current row's columns into dest.
func (rv *RowView) Scan(dest ...any) error {
	if err := rv.rows.Scan(dest...); err != nil {
		return fmt.Errorf("row %d: %w", rv.pos, err)
	}
	return nil
}

// Values returns all column values of the current row.
func (rv *RowView) Values() ([]any, error) {
	cols, err := rv.rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", rv.pos, err)
	}
	buf := make([]any, len(cols))
	scan := make([]any, len(cols))
	for i := range buf {
		scan[i] = &buf[i]
	}
	if err := rv.rows.Scan(scan...); err != nil {
		return nil, fmt.Errorf("row %d: %w", rv.pos, err)
	}
	return buf, nil
}

// RowSeq lazily walks a live result set: single-pass, non-restartable, never
// buffering more than one row. The cursor is owned exclusively by this
// sequence and increments once per produced row. The result set's lifetime
// belongs to the caller; abandoning the sequence early is legal.
type RowSeq struct {
	rows   *sql.Rows
	cursor int
	done   bool
}

// NewRowSeq wraps rows in a fresh sequence with its cursor at zero.
func NewRowSeq(rows *sql.Rows) *RowSeq {
	return &RowSeq{rows: rows}
}

// Next advances to the next row. It returns false once the underlying result
// set is exhausted, and keeps returning false afterwards.
func (s *RowSeq) Next() (*RowView, bool) {
	if s.done {
		return nil, false
	}
	if !s.rows.Next() {
		s.done = true
		return nil, false
	}
	s.cursor++
	return &RowView{rows: s.rows, pos: s.cursor}, true
}

// Pos returns the position of the most recently produced row.
func (s *RowSeq) Pos() int { return s.cursor }

// Err returns the error, if any, encountered during iteration.
func (s *RowSeq) Err() error { return s.rows.Err() }

// Close releases the underlying result set. Convenience for callers that own
// the result-set lifetime through the sequence.
func (s *RowSeq) Close() error { return s.rows.Close() }
