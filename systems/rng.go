package systems

// Stream salts keep the init draws and the per-frame turn draws apart.
const (
	streamRadius  uint32 = 0x51ed270b
	streamAngle   uint32 = 0x2c1b3c6d
	streamHeading uint32 = 0x297a2d39
	streamTurn    uint32 = 0x68e31da4
)

// hash generates a pseudo-random uint32 from two integers and a seed.
func hash(ix, iy, seed uint32) uint32 {
	h := ix*374761393 + iy*668265263 + seed*1442695041
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	// second avalanche round; sequential indices otherwise correlate
	h = (h ^ (h >> 15)) * 0x846ca68b
	h ^= h >> 16
	return h
}

// unitFloat maps h onto [0, 1) with 24 bits of precision.
func unitFloat(h uint32) float32 {
	return float32(h&0x00FFFFFF) / float32(0x01000000)
}

// Random01 returns a reproducible value in [0, 1) for (index, stream, seed).
func Random01(index, stream, seed uint32) float32 {
	return unitFloat(hash(index, stream, seed))
}

// Turn returns the signed heading perturbation in [-scale, scale) for one
// agent in one frame. It has no state, so invocations can call it in any order.
func Turn(index, frame, seed uint32, scale float32) float32 {
	if scale == 0 {
		return 0
	}
	u := Random01(index, frame, seed^streamTurn)
	return (2*u - 1) * scale
}
