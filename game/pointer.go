package game

import "math"

// PointerSource supplies the pointer once per frame as a field-space UV.
// hit is false when the pointer is not over the simulation surface.
type PointerSource interface {
	Poll() (u, v float32, hit bool)
}

// NoPointer never hits.
type NoPointer struct{}

func (NoPointer) Poll() (u, v float32, hit bool) { return 0, 0, false }

// PointerFunc adapts a function to PointerSource.
type PointerFunc func() (u, v float32, hit bool)

func (f PointerFunc) Poll() (u, v float32, hit bool) { return f() }

// pollPointer reads the source and folds the UV into [0, 1).
func (s *Simulation) pollPointer() (u, v float32, hit bool) {
	u, v, hit = s.pointer.Poll()
	if !hit {
		return 0, 0, false
	}
	return wrapUV(u), wrapUV(v), true
}

func wrapUV(x float32) float32 {
	r := x - float32(math.Floor(float64(x)))
	if r >= 1 {
		r = 0
	}
	return r
}
