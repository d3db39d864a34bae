package compute

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/pthm-cable/physarum/systems"
)

func testParams(dim int) *systems.Params {
	p := &systems.Params{
		SensorAngle:          math.Pi / 4,
		RotationAngle:        math.Pi / 4,
		SensorOffsetDistance: 0.01,
		StepSize:             0.001,
		Decay:                0.002,
		Deposit:              1,
		StartRadius:          0.5,
		BlurRadius:           1,
		Seed:                 1,
	}
	p.SetTrailDimension(dim)
	return p
}

func provision(t *testing.T, d Device, agents, dim int) {
	t.Helper()
	if err := d.ProvisionAgents(agents); err != nil {
		t.Fatalf("provision agents: %v", err)
	}
	if err := d.ProvisionTrail(dim); err != nil {
		t.Fatalf("provision trail: %v", err)
	}
	d.SetParams(testParams(dim))
}

func mustDispatch(t *testing.T, d Device, k Kernel, gx, gy int) {
	t.Helper()
	if err := d.Dispatch(k, gx, gy); err != nil {
		t.Fatalf("dispatch %s: %v", k, err)
	}
}

func TestGroups(t *testing.T) {
	tests := []struct {
		n, size, want int
	}{
		{0, 64, 0},
		{1, 64, 1},
		{64, 64, 1},
		{65, 64, 2},
		{1000, 8, 125},
	}
	for _, tc := range tests {
		if got := Groups1D(tc.n, tc.size); got != tc.want {
			t.Errorf("Groups1D(%d, %d) = %d, want %d", tc.n, tc.size, got, tc.want)
		}
	}

	if x, y := Groups2D(1024); x != 128 || y != 128 {
		t.Errorf("Groups2D(1024) = %d, %d; want 128, 128", x, y)
	}
	if x, y := Groups2D(9); x != 2 || y != 2 {
		t.Errorf("Groups2D(9) = %d, %d; want 2, 2", x, y)
	}
}

func TestKernelString(t *testing.T) {
	if StepTrail.String() != "StepTrail" {
		t.Errorf("unexpected name %q", StepTrail.String())
	}
	if !StepTrail.Tiled() || MoveParticles.Tiled() {
		t.Error("unexpected Tiled classification")
	}
}

func TestPoolRunsEveryGroupOnce(t *testing.T) {
	p := newPool(4)
	defer p.stop()

	const groups = 1000
	var seen [groups]int32
	p.dispatch(groups, func(g int) {
		atomic.AddInt32(&seen[g], 1)
	})

	for g, n := range seen {
		if n != 1 {
			t.Fatalf("group %d ran %d times", g, n)
		}
	}
}

func TestDispatchBeforeProvision(t *testing.T) {
	d := NewCPUDevice(64, 1)
	defer d.Release()

	err := d.Dispatch(MoveParticles, 1, 1)
	if !errors.Is(err, ErrNotProvisioned) {
		t.Errorf("expected ErrNotProvisioned, got %v", err)
	}
	if _, err := d.ReadTrail(nil); !errors.Is(err, ErrNotProvisioned) {
		t.Errorf("expected ErrNotProvisioned from ReadTrail, got %v", err)
	}
	if err := d.Dispatch(Kernel(42), 1, 1); !errors.Is(err, ErrKernelUnbound) {
		t.Errorf("expected ErrKernelUnbound, got %v", err)
	}
}

func TestDispatchLimit(t *testing.T) {
	d := NewCPUDevice(64, 1)
	defer d.Release()
	provision(t, d, 10, 8)

	if err := d.Dispatch(MoveParticles, systems.MaxGroupsPerDimension+1, 1); !errors.Is(err, ErrDispatchLimit) {
		t.Errorf("expected ErrDispatchLimit, got %v", err)
	}
	if err := d.ProvisionAgents(64*systems.MaxGroupsPerDimension + 1); !errors.Is(err, ErrDispatchLimit) {
		t.Errorf("expected oversize provision to fail, got %v", err)
	}
	if err := d.ProvisionAgents(0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestProvisionExactSizes(t *testing.T) {
	d := NewCPUDevice(64, 2)
	defer d.Release()
	provision(t, d, 1000, 64)

	if d.AgentCount() != 1000 {
		t.Errorf("expected 1000 agents, got %d", d.AgentCount())
	}
	agents, err := d.ReadAgents(nil)
	if err != nil || len(agents) != 1000 {
		t.Errorf("expected 1000 agents read back, got %d (%v)", len(agents), err)
	}

	// Reallocate the field; the step kernel must follow the new buffer.
	if err := d.ProvisionTrail(32); err != nil {
		t.Fatal(err)
	}
	gx, gy := Groups2D(32)
	mustDispatch(t, d, StepTrail, gx, gy)
	cells, err := d.ReadTrail(nil)
	if err != nil || len(cells) != 32*32 {
		t.Errorf("expected 1024 cells after reprovision, got %d (%v)", len(cells), err)
	}
	if d.TrailDimension() != 32 {
		t.Errorf("expected dimension 32, got %d", d.TrailDimension())
	}
}

func TestInitParticlesMatchesSequential(t *testing.T) {
	d := NewCPUDevice(64, 4)
	defer d.Release()
	provision(t, d, 5000, 64)

	mustDispatch(t, d, InitParticles, Groups1D(5000, 64), 1)

	want := systems.NewAgentStore(5000)
	systems.SeedAgents(want, testParams(64))
	got, _ := d.ReadAgents(nil)
	for i := range got {
		if got[i] != want.Agents[i] {
			t.Fatalf("agent %d: parallel %+v, sequential %+v", i, got[i], want.Agents[i])
		}
	}
}

func TestMoveDepositsEveryAgent(t *testing.T) {
	d := NewCPUDevice(64, 4)
	defer d.Release()
	provision(t, d, 5000, 64)

	mustDispatch(t, d, InitParticles, Groups1D(5000, 64), 1)
	mustDispatch(t, d, MoveParticles, Groups1D(5000, 64), 1)

	if total := d.Trail().Total(); total != 5000 {
		t.Errorf("expected total deposit 5000, got %f", total)
	}
}

func TestSingleWorkerDeterministic(t *testing.T) {
	run := func() []float32 {
		d := NewCPUDevice(64, 1)
		defer d.Release()
		provision(t, d, 2000, 64)
		gx, gy := Groups2D(64)
		mustDispatch(t, d, InitParticles, Groups1D(2000, 64), 1)
		mustDispatch(t, d, InitTrail, gx, gy)
		for i := 0; i < 20; i++ {
			mustDispatch(t, d, MoveParticles, Groups1D(2000, 64), 1)
			mustDispatch(t, d, StepTrail, gx, gy)
		}
		cells, _ := d.ReadTrail(nil)
		return cells
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("cell %d differs between identical runs: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestInitKernelSeedsAndClears(t *testing.T) {
	d := NewCPUDevice(8, 4)
	defer d.Release()
	provision(t, d, 100, 64)

	groups := Groups1D(100, 8)
	mustDispatch(t, d, MoveParticles, groups, 1)
	if d.Trail().Total() == 0 {
		t.Fatal("expected deposits before Init")
	}

	mustDispatch(t, d, Init, groups, 1)

	if total := d.Trail().Total(); total != 0 {
		t.Errorf("expected Init to clear the whole field, total %f", total)
	}
	want := systems.NewAgentStore(100)
	systems.SeedAgents(want, testParams(64))
	got, _ := d.ReadAgents(nil)
	for i := range got {
		if got[i] != want.Agents[i] {
			t.Fatalf("agent %d not seeded by Init", i)
		}
	}
}

func TestThousandAgentsStayBounded(t *testing.T) {
	d := NewCPUDevice(64, 4)
	defer d.Release()
	provision(t, d, 1000, 64)

	gx, gy := Groups2D(64)
	groups := Groups1D(1000, 64)
	mustDispatch(t, d, InitParticles, groups, 1)
	mustDispatch(t, d, InitTrail, gx, gy)

	p := testParams(64)
	for frame := uint32(0); frame < 100; frame++ {
		p.Frame = frame
		d.SetParams(p)
		mustDispatch(t, d, MoveParticles, groups, 1)
		mustDispatch(t, d, StepTrail, gx, gy)
	}

	agents, _ := d.ReadAgents(nil)
	for i, a := range agents {
		if a.X < 0 || a.X >= 1 || a.Y < 0 || a.Y >= 1 {
			t.Fatalf("agent %d outside the torus: (%f, %f)", i, a.X, a.Y)
		}
	}
	cells, _ := d.ReadTrail(nil)
	for i, c := range cells {
		if c < 0 || math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			t.Fatalf("cell %d invalid: %f", i, c)
		}
	}
}

func TestReleaseThenProvision(t *testing.T) {
	d := NewCPUDevice(64, 2)
	provision(t, d, 100, 16)
	d.Release()

	if d.AgentCount() != 0 || d.TrailDimension() != 0 {
		t.Error("expected resources gone after Release")
	}
	if err := d.Dispatch(StepTrail, 2, 2); !errors.Is(err, ErrNotProvisioned) {
		t.Errorf("expected ErrNotProvisioned after Release, got %v", err)
	}

	provision(t, d, 100, 16)
	defer d.Release()
	mustDispatch(t, d, InitParticles, 2, 1)
}
