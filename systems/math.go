package systems

import "math"

const twoPi = 2 * math.Pi

// wrap01 folds x into [0, 1). float32 rounding can turn a tiny negative
// fraction into exactly 1, which is folded back to 0.
func wrap01(x float32) float32 {
	r := x - float32(math.Floor(float64(x)))
	if r >= 1 {
		r = 0
	}
	return r
}

// modInt computes the positive modulo (Go's % can return negative).
func modInt(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// on the unit torus.
func toroidalDelta(to, from float32) float32 {
	d := to - from
	if d > 0.5 {
		d -= 1
	} else if d < -0.5 {
		d += 1
	}
	return d
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float32) float32 {
	for angle > math.Pi {
		angle -= twoPi
	}
	for angle < -math.Pi {
		angle += twoPi
	}
	return angle
}

func sincos(a float32) (sin, cos float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}

func sqrtf(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}
