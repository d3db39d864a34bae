package systems

import "math"

// Steer picks the heading change from the three sensor readings. A strictly
// dominant centre keeps the heading; otherwise the agent turns toward the
// stronger side sensor. Ties between the sides fall back to jitter.
func Steer(center, left, right, rotation, jitter float32) float32 {
	switch {
	case center > left && center > right:
		return 0
	case left > right:
		return rotation
	case right > left:
		return -rotation
	}
	return jitter
}

// MoveParticle is the body of the agent kernel for agent i: sense, turn,
// advance, apply the pointer, deposit. Reads of the field may observe other
// agents' deposits from the same dispatch.
func MoveParticle(i int, s *AgentStore, f *TrailField, p *Params) {
	if i < 0 || i >= len(s.Agents) {
		return
	}
	a := &s.Agents[i]
	h := a.Heading
	off := p.SensorOffsetDistance

	sin, cos := sincos(h)
	center := f.Sample(a.X+cos*off, a.Y+sin*off)
	sin, cos = sincos(h + p.SensorAngle)
	left := f.Sample(a.X+cos*off, a.Y+sin*off)
	sin, cos = sincos(h - p.SensorAngle)
	right := f.Sample(a.X+cos*off, a.Y+sin*off)

	jitter := Turn(uint32(i), p.Frame, p.Seed, p.Randomness*p.RotationAngle)
	h += Steer(center, left, right, p.RotationAngle, jitter)

	sin, cos = sincos(h)
	a.X = wrap01(a.X + cos*p.StepSize)
	a.Y = wrap01(a.Y + sin*p.StepSize)

	if p.PointerHit {
		h = applyPointer(a, h, f, p)
	}

	f.Deposit(a.X, a.Y, p.Deposit)
	a.Heading = wrapHeading(h)
}

// applyPointer steers agents inside the pointer disc and drops the pointer
// chemical under them. Positive attraction blends the heading toward the
// pointer, negative away from it; the magnitude is the blend factor.
func applyPointer(a *Agent, h float32, f *TrailField, p *Params) float32 {
	dx := toroidalDelta(p.PointerU, a.X)
	dy := toroidalDelta(p.PointerV, a.Y)
	if dx*dx+dy*dy > p.PointerRadius*p.PointerRadius {
		return h
	}

	// An agent on the pointer has no direction to it.
	if attract := p.PointerParticleAttraction; attract != 0 && (dx != 0 || dy != 0) {
		target := float32(math.Atan2(float64(dy), float64(dx)))
		if attract < 0 {
			target += math.Pi
			attract = -attract
		}
		attract = min(attract, 1)
		h += normalizeAngle(target-h) * attract
	}

	if p.PointerChemicalA != 0 {
		f.Deposit(a.X, a.Y, p.PointerChemicalA)
	}
	return h
}

// wrapHeading keeps headings bounded so float32 precision does not drain away
// over long runs.
func wrapHeading(h float32) float32 {
	if h >= 0 && h < twoPi {
		return h
	}
	h = float32(math.Mod(float64(h), twoPi))
	if h < 0 {
		h += twoPi
	}
	if h >= twoPi {
		h = 0
	}
	return h
}
