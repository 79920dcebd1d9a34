// Package batch implements the Mini-Batch: a named, ordered, append-only
// sequence of Data Cells and the unit of data flow on a single port for one
// execution batch (spec.md §3, ported from the original C++ MiniBatch).
package batch

import (
	"fmt"

	"github.com/vk/dagflow/internal/cell"
)

// OutOfRangeError is returned by At when the index is not a valid position,
// mirroring std::vector::at's exception on out-of-range access.
type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("batch: index %d out of range (len %d)", e.Index, e.Len)
}

// MiniBatch is a value type, but copying it by assignment copies only the
// slice header: the copy shares its backing cell array with the original.
// Use Clone for a copy whose backing slice is independent.
type MiniBatch struct {
	name  string
	cells []cell.Cell
}

// New returns an empty, unnamed MiniBatch.
func New() MiniBatch {
	return MiniBatch{}
}

// NewNamed returns an empty MiniBatch with the given name.
func NewNamed(name string) MiniBatch {
	return MiniBatch{name: name}
}

// FromCells returns a MiniBatch seeded with the given cells, in order.
func FromCells(cells ...cell.Cell) MiniBatch {
	return MiniBatch{cells: append([]cell.Cell(nil), cells...)}
}

// Append adds one Cell to the end of the batch.
func (b *MiniBatch) Append(c cell.Cell) {
	b.cells = append(b.cells, c)
}

// At returns the Cell at index i, or an *OutOfRangeError if i is invalid.
func (b MiniBatch) At(i int) (cell.Cell, error) {
	if i < 0 || i >= len(b.cells) {
		return cell.Cell{}, &OutOfRangeError{Index: i, Len: len(b.cells)}
	}
	return b.cells[i], nil
}

// Len returns the number of cells in the batch.
func (b MiniBatch) Len() int { return len(b.cells) }

// Clear removes all cells, preserving the name.
func (b *MiniBatch) Clear() { b.cells = nil }

// Name returns the batch's name.
func (b MiniBatch) Name() string { return b.name }

// SetName sets the batch's name.
func (b *MiniBatch) SetName(name string) { b.name = name }

// Clone returns a deep copy whose backing slice is independent of b's.
func (b MiniBatch) Clone() MiniBatch {
	out := MiniBatch{name: b.name}
	if b.cells != nil {
		out.cells = append([]cell.Cell(nil), b.cells...)
	}
	return out
}

// Equal reports whether two MiniBatches have the same name and pairwise
// equal cells in the same order (spec.md §3).
func (b MiniBatch) Equal(o MiniBatch) bool {
	if b.name != o.name || len(b.cells) != len(o.cells) {
		return false
	}
	for i := range b.cells {
		if !b.cells[i].Equal(o.cells[i]) {
			return false
		}
	}
	return true
}
