package systems

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// TrailField is the square chemical field with wraparound addressing.
// Cells holds the current generation; StepTrailCell writes the next
// generation into a scratch buffer that Swap promotes.
type TrailField struct {
	Dim   int
	Cells []float32

	next []float32
}

// NewTrailField allocates a dim x dim field of zeros. dim must already be snapped.
func NewTrailField(dim int) *TrailField {
	return &TrailField{
		Dim:   dim,
		Cells: make([]float32, dim*dim),
		next:  make([]float32, dim*dim),
	}
}

// Index returns the flat index of cell (x, y), wrapping both axes.
func (f *TrailField) Index(x, y int) int {
	return modInt(y, f.Dim)*f.Dim + modInt(x, f.Dim)
}

// CellAt maps a unit-torus position onto cell coordinates.
func (f *TrailField) CellAt(u, v float32) (x, y int) {
	x = int(wrap01(u) * float32(f.Dim))
	y = int(wrap01(v) * float32(f.Dim))
	// wrap01 < 1, but the product can still round up to Dim
	return clampCell(x, f.Dim), clampCell(y, f.Dim)
}

func clampCell(c, dim int) int {
	if c >= dim {
		return dim - 1
	}
	if c < 0 {
		return 0
	}
	return c
}

// Cell returns the value of cell (x, y), wrapping both axes.
func (f *TrailField) Cell(x, y int) float32 {
	return f.Cells[f.Index(x, y)]
}

func (f *TrailField) bits(i int) *uint32 {
	return (*uint32)(unsafe.Pointer(&f.Cells[i]))
}

// Sample reads the cell under (u, v). It is safe against concurrent Deposit.
func (f *TrailField) Sample(u, v float32) float32 {
	x, y := f.CellAt(u, v)
	return math.Float32frombits(atomic.LoadUint32(f.bits(y*f.Dim + x)))
}

// Deposit adds amount to the cell under (u, v). Concurrent deposits into the
// same cell are summed without loss.
func (f *TrailField) Deposit(u, v, amount float32) {
	x, y := f.CellAt(u, v)
	p := f.bits(y*f.Dim + x)
	for {
		old := atomic.LoadUint32(p)
		sum := math.Float32bits(math.Float32frombits(old) + amount)
		if atomic.CompareAndSwapUint32(p, old, sum) {
			return
		}
	}
}

// ClearCell zeroes cell (x, y) in both generations.
func (f *TrailField) ClearCell(x, y int) {
	i := y*f.Dim + x
	f.Cells[i] = 0
	f.next[i] = 0
}

// Swap promotes the generation written by StepTrailCell.
func (f *TrailField) Swap() {
	f.Cells, f.next = f.next, f.Cells
}

// Total sums every cell.
func (f *TrailField) Total() float64 {
	var sum float64
	for _, c := range f.Cells {
		sum += float64(c)
	}
	return sum
}

// Snapshot copies the current generation into dst, growing it as needed.
func (f *TrailField) Snapshot(dst []float32) []float32 {
	if cap(dst) < len(f.Cells) {
		dst = make([]float32, len(f.Cells))
	}
	dst = dst[:len(f.Cells)]
	copy(dst, f.Cells)
	return dst
}
