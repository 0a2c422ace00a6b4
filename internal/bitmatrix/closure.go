package bitmatrix

import "fmt"

// TransitiveClosure returns a new matrix in which (i, j) is set whenever j is
// reachable from i through one or more set cells (Warshall). The receiver
// must be square.
func (m *Matrix) TransitiveClosure() (*Matrix, error) {
	if !m.IsSquare() {
		return nil, fmt.Errorf("%w: closure needs a square matrix, got %dx%d", ErrInvalidDimension, m.rows, m.columns)
	}
	out := m.Clone()
	n := m.rows
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !out.bits.Test(out.index(i, k)) {
				continue
			}
			for j := 0; j < n; j++ {
				if out.bits.Test(out.index(k, j)) {
					out.bits.Set(out.index(i, j))
				}
			}
		}
	}
	return out, nil
}
