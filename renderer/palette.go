package renderer

import (
	"image/color"
	"math"
)

type rampStop struct {
	at      float32
	r, g, b float32
}

// Dark blue through cyan to warm white.
var rampStops = []rampStop{
	{0.00, 0, 0, 0},
	{0.35, 18, 36, 112},
	{0.70, 40, 196, 220},
	{1.00, 255, 250, 232},
}

var ramp = buildRamp()

func buildRamp() [256]color.RGBA {
	var out [256]color.RGBA
	for i := range out {
		t := float32(i) / 255
		j := 1
		for j < len(rampStops)-1 && t > rampStops[j].at {
			j++
		}
		a, b := rampStops[j-1], rampStops[j]
		f := (t - a.at) / (b.at - a.at)
		out[i] = color.RGBA{
			R: uint8(a.r + (b.r-a.r)*f),
			G: uint8(a.g + (b.g-a.g)*f),
			B: uint8(a.b + (b.b-a.b)*f),
			A: 255,
		}
	}
	return out
}

// Colorize maps trail values through the ramp. Values are tone-mapped with
// 1 - exp(-v*gain) so unbounded densities still fill the range.
func Colorize(cells []float32, gain float32, dst []color.RGBA) []color.RGBA {
	if cap(dst) < len(cells) {
		dst = make([]color.RGBA, len(cells))
	}
	dst = dst[:len(cells)]
	for i, v := range cells {
		if !(v > 0) {
			dst[i] = ramp[0]
			continue
		}
		t := 1 - math.Exp(-float64(v*gain))
		dst[i] = ramp[int(t*255)]
	}
	return dst
}
