// Package bitmatrix provides a dense rows x columns boolean matrix used as a
// compact adjacency and reachability representation for graphs.
package bitmatrix

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

var (
	// ErrInvalidDimension is returned when a matrix is created with a
	// non-positive row or column count, or with a bit source of the wrong size.
	ErrInvalidDimension = errors.New("invalid matrix dimension")
	// ErrOutOfBounds is returned when a row or column index is outside the matrix.
	ErrOutOfBounds = errors.New("index out of bounds")
)

// BoundsError describes a rejected row or column index.
type BoundsError struct {
	Axis  string
	Index int
	Count int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s index %d out of bounds [0, %d)", e.Axis, e.Index, e.Count)
}

func (e *BoundsError) Unwrap() error { return ErrOutOfBounds }

// Cursor is a single (row, column, value) triple produced while scanning.
type Cursor struct {
	Row    int
	Column int
	Value  bool
}

// Matrix is a fixed-size boolean matrix stored row-major in a bit set.
// It is not safe for concurrent mutation; concurrent reads are fine.
type Matrix struct {
	rows    int
	columns int
	bits    *bitset.BitSet
}

// New creates an all-false matrix.
func New(rows, columns int) (*Matrix, error) {
	if err := checkDimensions(rows, columns); err != nil {
		return nil, err
	}
	return &Matrix{
		rows:    rows,
		columns: columns,
		bits:    bitset.New(uint(rows * columns)),
	}, nil
}

// NewFromBits creates a matrix over a pre-populated, row-major bit source.
// The source must hold exactly rows*columns bits; it is cloned.
func NewFromBits(rows, columns int, bits *bitset.BitSet) (*Matrix, error) {
	if err := checkDimensions(rows, columns); err != nil {
		return nil, err
	}
	if bits == nil || bits.Len() != uint(rows*columns) {
		return nil, fmt.Errorf("%w: bit source must hold %d bits", ErrInvalidDimension, rows*columns)
	}
	return &Matrix{rows: rows, columns: columns, bits: bits.Clone()}, nil
}

// Parse builds a matrix from a textual layout such as "00 01 10", one group of
// '0'/'1' characters per row.
func Parse(rows, columns int, layout string) (*Matrix, error) {
	m, err := New(rows, columns)
	if err != nil {
		return nil, err
	}
	groups := strings.Fields(layout)
	if len(groups) != rows {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidDimension, rows, len(groups))
	}
	for r, g := range groups {
		if len(g) != columns {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidDimension, r, len(g), columns)
		}
		for c, ch := range g {
			switch ch {
			case '1':
				m.bits.Set(m.index(r, c))
			case '0':
			default:
				return nil, fmt.Errorf("invalid bit %q at row %d column %d", ch, r, c)
			}
		}
	}
	return m, nil
}

func checkDimensions(rows, columns int) error {
	if rows < 1 || columns < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimension, rows, columns)
	}
	return nil
}

// RowCount returns the number of rows.
func (m *Matrix) RowCount() int { return m.rows }

// ColumnCount returns the number of columns.
func (m *Matrix) ColumnCount() int { return m.columns }

// IsSquare reports whether the matrix has as many rows as columns.
func (m *Matrix) IsSquare() bool { return m.rows == m.columns }

// Get returns the value at (row, column).
func (m *Matrix) Get(row, column int) (bool, error) {
	if err := m.checkCell(row, column); err != nil {
		return false, err
	}
	return m.bits.Test(m.index(row, column)), nil
}

// Set stores value at (row, column).
func (m *Matrix) Set(row, column int, value bool) error {
	if err := m.checkCell(row, column); err != nil {
		return err
	}
	m.bits.SetTo(m.index(row, column), value)
	return nil
}

// Clone returns an independent copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{rows: m.rows, columns: m.columns, bits: m.bits.Clone()}
}

// Count returns the number of true cells.
func (m *Matrix) Count() int { return int(m.bits.Count()) }

// String renders the matrix in the layout accepted by Parse.
func (m *Matrix) String() string {
	var sb strings.Builder
	for r := 0; r < m.rows; r++ {
		if r > 0 {
			sb.WriteByte(' ')
		}
		for c := 0; c < m.columns; c++ {
			if m.bits.Test(m.index(r, c)) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String()
}

// RowIterator returns a sequence of cursors sweeping the columns of row in
// increasing order. An out-of-range row fails here, before any cursor exists.
func (m *Matrix) RowIterator(row int) (iter.Seq[Cursor], error) {
	s, err := m.RowSpliterator(row)
	if err != nil {
		return nil, err
	}
	return s.replay(), nil
}

// ColumnIterator returns a sequence of cursors sweeping the rows of column in
// increasing order. An out-of-range column fails here, before any cursor exists.
func (m *Matrix) ColumnIterator(column int) (iter.Seq[Cursor], error) {
	s, err := m.ColumnSpliterator(column)
	if err != nil {
		return nil, err
	}
	return s.replay(), nil
}

// RowSpliterator returns a splittable traversal over row.
func (m *Matrix) RowSpliterator(row int) (*Spliterator, error) {
	if row < 0 || row >= m.rows {
		return nil, &BoundsError{Axis: "row", Index: row, Count: m.rows}
	}
	return &Spliterator{m: m, fixed: row, pos: 0, end: m.columns}, nil
}

// ColumnSpliterator returns a splittable traversal over column.
func (m *Matrix) ColumnSpliterator(column int) (*Spliterator, error) {
	if column < 0 || column >= m.columns {
		return nil, &BoundsError{Axis: "column", Index: column, Count: m.columns}
	}
	return &Spliterator{m: m, fixed: column, vertical: true, pos: 0, end: m.rows}, nil
}

func (m *Matrix) index(row, column int) uint {
	return uint(row*m.columns + column)
}

func (m *Matrix) checkCell(row, column int) error {
	if row < 0 || row >= m.rows {
		return &BoundsError{Axis: "row", Index: row, Count: m.rows}
	}
	if column < 0 || column >= m.columns {
		return &BoundsError{Axis: "column", Index: column, Count: m.columns}
	}
	return nil
}
