package compute

import (
	"fmt"

	"github.com/pthm-cable/physarum/systems"
)

// binding is the resource set a kernel sees when it is dispatched.
type binding struct {
	agents *systems.AgentStore
	trail  *systems.TrailField
}

// CPUDevice runs the kernels on a goroutine worker pool. Each dispatch
// group is one unit of work; a dispatch returns once every group is done,
// which gives the same ordering a GPU barrier between dispatches would.
type CPUDevice struct {
	groupSize int
	pool      *pool

	params   systems.Params
	agents   *systems.AgentStore
	trail    *systems.TrailField
	bindings [NumKernels]binding
}

// NewCPUDevice creates a device with the given agent group size. workers <= 0
// uses GOMAXPROCS.
func NewCPUDevice(groupSize, workers int) *CPUDevice {
	if groupSize <= 0 {
		groupSize = systems.ParticleGroupSize
	}
	return &CPUDevice{
		groupSize: groupSize,
		pool:      newPool(workers),
	}
}

func (d *CPUDevice) Name() string   { return "cpu" }
func (d *CPUDevice) GroupSize() int { return d.groupSize }

// ProvisionAgents implements Device.
func (d *CPUDevice) ProvisionAgents(count int) error {
	if count < 1 {
		return fmt.Errorf("%w: %d agents", ErrInvalidSize, count)
	}
	if err := checkGroups(InitParticles, Groups1D(count, d.groupSize), 1); err != nil {
		return err
	}
	d.agents = nil
	d.agents = systems.NewAgentStore(count)
	d.rebind()
	return nil
}

// ProvisionTrail implements Device.
func (d *CPUDevice) ProvisionTrail(dim int) error {
	if dim < 1 {
		return fmt.Errorf("%w: trail dimension %d", ErrInvalidSize, dim)
	}
	d.trail = nil
	d.trail = systems.NewTrailField(dim)
	d.rebind()
	return nil
}

// rebind points every kernel at the current allocations.
func (d *CPUDevice) rebind() {
	for k := range NumKernels {
		var b binding
		if k.UsesAgents() {
			b.agents = d.agents
		}
		if k.UsesTrail() {
			b.trail = d.trail
		}
		d.bindings[k] = b
	}
}

// SetParams implements Device. The block is copied.
func (d *CPUDevice) SetParams(p *systems.Params) {
	d.params = *p
}

// Dispatch implements Device.
func (d *CPUDevice) Dispatch(k Kernel, gx, gy int) error {
	if k < 0 || k >= NumKernels {
		return fmt.Errorf("%w: %d", ErrKernelUnbound, int(k))
	}
	if err := checkGroups(k, gx, gy); err != nil {
		return err
	}
	b := d.bindings[k]
	if (k.UsesAgents() && b.agents == nil) || (k.UsesTrail() && b.trail == nil) {
		return fmt.Errorf("%w: %s", ErrNotProvisioned, k)
	}

	p := &d.params
	gs := d.groupSize

	switch k {
	case InitParticles:
		d.pool.dispatch(gx, func(g int) {
			for i := g * gs; i < (g+1)*gs; i++ {
				systems.InitParticle(b.agents, i, p)
			}
		})

	case MoveParticles:
		d.pool.dispatch(gx, func(g int) {
			for i := g * gs; i < (g+1)*gs; i++ {
				systems.MoveParticle(i, b.agents, b.trail, p)
			}
		})

	case InitTrail:
		d.tiles(gx, gy, func(x, y int) {
			systems.InitTrailCell(b.trail, x, y)
		})

	case StepTrail:
		d.tiles(gx, gy, func(x, y int) {
			systems.StepTrailCell(b.trail, x, y, p)
		})
		b.trail.Swap()

	case Init:
		// Grid-stride over the field so one agent-sized dispatch covers any
		// field dimension.
		stride := gx * gs
		dim := b.trail.Dim
		cells := dim * dim
		d.pool.dispatch(gx, func(g int) {
			for i := g * gs; i < (g+1)*gs; i++ {
				systems.InitParticle(b.agents, i, p)
				for c := i; c < cells; c += stride {
					systems.InitTrailCell(b.trail, c%dim, c/dim)
				}
			}
		})
	}
	return nil
}

// tiles runs fn over each cell of a gx x gy tile grid.
func (d *CPUDevice) tiles(gx, gy int, fn func(x, y int)) {
	d.pool.dispatch(gx*gy, func(g int) {
		x0 := (g % gx) * systems.TrailTileX
		y0 := (g / gx) * systems.TrailTileY
		for y := y0; y < y0+systems.TrailTileY; y++ {
			for x := x0; x < x0+systems.TrailTileX; x++ {
				fn(x, y)
			}
		}
	})
}

func (d *CPUDevice) AgentCount() int {
	if d.agents == nil {
		return 0
	}
	return d.agents.Len()
}

func (d *CPUDevice) TrailDimension() int {
	if d.trail == nil {
		return 0
	}
	return d.trail.Dim
}

// ReadTrail implements Device.
func (d *CPUDevice) ReadTrail(dst []float32) ([]float32, error) {
	if d.trail == nil {
		return dst, fmt.Errorf("%w: trail", ErrNotProvisioned)
	}
	return d.trail.Snapshot(dst), nil
}

// ReadAgents implements Device.
func (d *CPUDevice) ReadAgents(dst []systems.Agent) ([]systems.Agent, error) {
	if d.agents == nil {
		return dst, fmt.Errorf("%w: agents", ErrNotProvisioned)
	}
	n := d.agents.Len()
	if cap(dst) < n {
		dst = make([]systems.Agent, n)
	}
	dst = dst[:n]
	copy(dst, d.agents.Agents)
	return dst, nil
}

// WriteTrail implements Device.
func (d *CPUDevice) WriteTrail(src []float32) error {
	if d.trail == nil {
		return fmt.Errorf("%w: trail", ErrNotProvisioned)
	}
	if len(src) != len(d.trail.Cells) {
		return fmt.Errorf("%w: %d cells for dimension %d", ErrInvalidSize, len(src), d.trail.Dim)
	}
	copy(d.trail.Cells, src)
	return nil
}

// WriteAgents implements Device.
func (d *CPUDevice) WriteAgents(src []systems.Agent) error {
	if d.agents == nil {
		return fmt.Errorf("%w: agents", ErrNotProvisioned)
	}
	if len(src) != d.agents.Len() {
		return fmt.Errorf("%w: %d agents for buffer of %d", ErrInvalidSize, len(src), d.agents.Len())
	}
	copy(d.agents.Agents, src)
	return nil
}

// Trail exposes the live field for in-process consumers.
func (d *CPUDevice) Trail() *systems.TrailField { return d.trail }

// Release implements Device.
func (d *CPUDevice) Release() {
	d.agents = nil
	d.trail = nil
	d.rebind()
	d.pool.stop()
}
