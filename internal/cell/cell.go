// Package cell implements the Data Cell: a closed tagged-value carrier used
// to move individual scalars and sequences between node ports.
//
// The variant set is fixed and exhaustive (spec.md §3/§6). There is no
// dynamic subtyping and no implicit conversion between variants — a Cell
// reports its active Kind and offers typed accessors that fail loudly on
// mismatch, mirroring the std::variant contract of the original C++
// DataContainer.
package cell

import "fmt"

// Kind identifies the active variant held by a Cell.
type Kind int

const (
	Int32 Kind = iota
	Int64
	IntWide
	Uint32
	Uint64
	UintWide
	Float32
	Float64
	FloatWide
	Text
	SeqInt32
	SeqInt64
	SeqFloat32
	SeqFloat64
	SeqText
)

// String returns a human-readable name for the Kind, used in diagnostics.
func (k Kind) String() string {
	switch k {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case IntWide:
		return "int128"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case UintWide:
		return "uint128"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case FloatWide:
		return "float128"
	case Text:
		return "text"
	case SeqInt32:
		return "seq<int32>"
	case SeqInt64:
		return "seq<int64>"
	case SeqFloat32:
		return "seq<float32>"
	case SeqFloat64:
		return "seq<float64>"
	case SeqText:
		return "seq<text>"
	default:
		return fmt.Sprintf("cell.Kind(%d)", int(k))
	}
}

// Wide is a 128-bit-shaped value. Go has no native int128/float128; this
// carries the enumerated "wide" variants without truncation for the values
// this engine actually needs to move around (the core never arithmetically
// operates on a Cell's payload itself — that is the node body's job).
type Wide [2]uint64

// Cell is a tagged union over exactly the variants enumerated by Kind.
// The zero Cell reports Kind Int32 but holds no payload: AsInt32 reports
// false for it and it is not Equal to NewInt32(0).
type Cell struct {
	kind    Kind
	payload any
}

// VariantMismatchError is returned (or panicked, via the Must* accessors)
// when a Cell is read as a Kind other than its active one.
type VariantMismatchError struct {
	Want Kind
	Have Kind
}

func (e *VariantMismatchError) Error() string {
	return fmt.Sprintf("cell: variant mismatch: want %s, have %s", e.Want, e.Have)
}

// Kind reports the Cell's active variant.
func (c Cell) Kind() Kind { return c.kind }

// Equal reports whether two Cells hold the same Kind and value.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case SeqInt32:
		return equalSlice(c.payload.([]int32), o.payload.([]int32))
	case SeqInt64:
		return equalSlice(c.payload.([]int64), o.payload.([]int64))
	case SeqFloat32:
		return equalSlice(c.payload.([]float32), o.payload.([]float32))
	case SeqFloat64:
		return equalSlice(c.payload.([]float64), o.payload.([]float64))
	case SeqText:
		return equalSlice(c.payload.([]string), o.payload.([]string))
	default:
		return c.payload == o.payload
	}
}

func equalSlice[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Constructors, one per variant.

func NewInt32(v int32) Cell       { return Cell{kind: Int32, payload: v} }
func NewInt64(v int64) Cell       { return Cell{kind: Int64, payload: v} }
func NewIntWide(v Wide) Cell      { return Cell{kind: IntWide, payload: v} }
func NewUint32(v uint32) Cell     { return Cell{kind: Uint32, payload: v} }
func NewUint64(v uint64) Cell     { return Cell{kind: Uint64, payload: v} }
func NewUintWide(v Wide) Cell     { return Cell{kind: UintWide, payload: v} }
func NewFloat32(v float32) Cell   { return Cell{kind: Float32, payload: v} }
func NewFloat64(v float64) Cell   { return Cell{kind: Float64, payload: v} }
func NewFloatWide(v Wide) Cell    { return Cell{kind: FloatWide, payload: v} }
func NewText(v string) Cell       { return Cell{kind: Text, payload: v} }

func NewSeqInt32(v []int32) Cell     { return Cell{kind: SeqInt32, payload: append([]int32(nil), v...)} }
func NewSeqInt64(v []int64) Cell     { return Cell{kind: SeqInt64, payload: append([]int64(nil), v...)} }
func NewSeqFloat32(v []float32) Cell { return Cell{kind: SeqFloat32, payload: append([]float32(nil), v...)} }
func NewSeqFloat64(v []float64) Cell { return Cell{kind: SeqFloat64, payload: append([]float64(nil), v...)} }
func NewSeqText(v []string) Cell     { return Cell{kind: SeqText, payload: append([]string(nil), v...)} }

// Typed accessors. The bool-returning form never panics; the Must form
// panics with a *VariantMismatchError, matching the original's std::get
// throwing on a wrong variant and spec.md's "fails loudly" requirement.

func (c Cell) AsInt32() (int32, bool)     { v, ok := c.payload.(int32); return v, ok && c.kind == Int32 }
func (c Cell) AsInt64() (int64, bool)     { v, ok := c.payload.(int64); return v, ok && c.kind == Int64 }
func (c Cell) AsIntWide() (Wide, bool)    { v, ok := c.payload.(Wide); return v, ok && c.kind == IntWide }
func (c Cell) AsUint32() (uint32, bool)   { v, ok := c.payload.(uint32); return v, ok && c.kind == Uint32 }
func (c Cell) AsUint64() (uint64, bool)   { v, ok := c.payload.(uint64); return v, ok && c.kind == Uint64 }
func (c Cell) AsUintWide() (Wide, bool)   { v, ok := c.payload.(Wide); return v, ok && c.kind == UintWide }
func (c Cell) AsFloat32() (float32, bool) { v, ok := c.payload.(float32); return v, ok && c.kind == Float32 }
func (c Cell) AsFloat64() (float64, bool) { v, ok := c.payload.(float64); return v, ok && c.kind == Float64 }
func (c Cell) AsFloatWide() (Wide, bool)  { v, ok := c.payload.(Wide); return v, ok && c.kind == FloatWide }
func (c Cell) AsText() (string, bool)     { v, ok := c.payload.(string); return v, ok && c.kind == Text }

func (c Cell) AsSeqInt32() ([]int32, bool)     { v, ok := c.payload.([]int32); return v, ok && c.kind == SeqInt32 }
func (c Cell) AsSeqInt64() ([]int64, bool)     { v, ok := c.payload.([]int64); return v, ok && c.kind == SeqInt64 }
func (c Cell) AsSeqFloat32() ([]float32, bool) { v, ok := c.payload.([]float32); return v, ok && c.kind == SeqFloat32 }
func (c Cell) AsSeqFloat64() ([]float64, bool) { v, ok := c.payload.([]float64); return v, ok && c.kind == SeqFloat64 }
func (c Cell) AsSeqText() ([]string, bool)     { v, ok := c.payload.([]string); return v, ok && c.kind == SeqText }

func (c Cell) MustFloat64() float64 {
	v, ok := c.AsFloat64()
	if !ok {
		panic(&VariantMismatchError{Want: Float64, Have: c.kind})
	}
	return v
}

func (c Cell) MustFloat32() float32 {
	v, ok := c.AsFloat32()
	if !ok {
		panic(&VariantMismatchError{Want: Float32, Have: c.kind})
	}
	return v
}

func (c Cell) MustInt64() int64 {
	v, ok := c.AsInt64()
	if !ok {
		panic(&VariantMismatchError{Want: Int64, Have: c.kind})
	}
	return v
}

func (c Cell) MustInt32() int32 {
	v, ok := c.AsInt32()
	if !ok {
		panic(&VariantMismatchError{Want: Int32, Have: c.kind})
	}
	return v
}

func (c Cell) MustText() string {
	v, ok := c.AsText()
	if !ok {
		panic(&VariantMismatchError{Want: Text, Have: c.kind})
	}
	return v
}
