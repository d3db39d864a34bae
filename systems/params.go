// Package systems holds the agent store, the trail field and the per-invocation
// bodies of the simulation kernels. Compute devices decide how invocations are
// grouped and scheduled; everything here is written so any invocation can run
// in parallel with any other invocation of the same kernel.
package systems

// Dispatch geometry. Agent kernels are 1D, field kernels run on 2D tiles.
const (
	ParticleGroupSize        = 64
	ParticleGroupSizeCompact = 8
	TrailTileX               = 8
	TrailTileY               = 8
	MaxGroupsPerDimension    = 65535
)

// Params is the uniform block read by every kernel. It is rebuilt by the
// orchestration layer once per frame and never written during a dispatch.
type Params struct {
	DeltaTime            float32
	SensorAngle          float32 // radians
	RotationAngle        float32 // radians
	SensorOffsetDistance float32
	StepSize             float32
	Decay                float32
	Deposit              float32
	StartRadius          float32
	Randomness           float32 // jitter scale, in units of RotationAngle

	PointerU, PointerV        float32
	PointerHit                bool
	PointerRadius             float32
	PointerChemicalA          float32
	PointerParticleAttraction float32

	BlurRadius int    // neighbourhood half-width of the field blur; 0 = identity
	Frame      uint32 // dispatched-frame counter, feeds the turn stream
	Seed       uint32

	// Pushed once after every trail (re)allocation.
	FTrailMapDimension float32
	ITrailMapDimension int
	TrailMapTexelSize  float32
}

// SetTrailDimension fills the dimension constants for a dim x dim field.
func (p *Params) SetTrailDimension(dim int) {
	p.ITrailMapDimension = dim
	p.FTrailMapDimension = float32(dim)
	p.TrailMapTexelSize = 1 / float32(dim)
}

// ClampParticleCount limits n to what one 1D dispatch can cover with the
// given group size. Counts below one become one.
func ClampParticleCount(n, groupSize int) (effective int, clamped bool) {
	limit := groupSize * MaxGroupsPerDimension
	switch {
	case n > limit:
		return limit, true
	case n < 1:
		return 1, true
	}
	return n, false
}

// SnapTrailDimension raises d to at least one field tile.
func SnapTrailDimension(d int) (effective int, snapped bool) {
	minDim := max(TrailTileX, TrailTileY)
	if d < minDim {
		return minDim, true
	}
	return d, false
}
