package systems

import "math"

// InitTrailCell zeroes cell (x, y). Invocations outside the field return.
func InitTrailCell(f *TrailField, x, y int) {
	if x < 0 || y < 0 || x >= f.Dim || y >= f.Dim {
		return
	}
	f.ClearCell(x, y)
}

// StepTrailCell writes the next generation of cell (x, y): the mean over the
// (2r+1)^2 wrapped neighbourhood, scaled by (1 - Decay) and clamped at zero.
// It only reads the current generation, so every cell can run in parallel.
func StepTrailCell(f *TrailField, x, y int, p *Params) {
	dim := f.Dim
	if x < 0 || y < 0 || x >= dim || y >= dim {
		return
	}

	r := p.BlurRadius
	var v float32
	if r <= 0 {
		v = f.Cells[y*dim+x]
	} else {
		var sum float32
		for oy := -r; oy <= r; oy++ {
			row := modInt(y+oy, dim) * dim
			for ox := -r; ox <= r; ox++ {
				sum += f.Cells[row+modInt(x+ox, dim)]
			}
		}
		side := float32(2*r + 1)
		v = sum / (side * side)
	}

	v *= 1 - p.Decay
	// NaN fails the comparison and is cleared with the negatives
	if !(v > 0) {
		v = 0
	} else if v > math.MaxFloat32 {
		v = math.MaxFloat32
	}
	f.next[y*dim+x] = v
}
