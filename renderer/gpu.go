package renderer

import (
	"embed"
	"fmt"
	"log/slog"
	"math"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/pthm-cable/physarum/compute"
	"github.com/pthm-cable/physarum/systems"
)

//go:embed shaders/*.glsl
var shaderFS embed.FS

const (
	glComputeShader = 0x91B9
	glDynamicCopy   = 0x88EA

	agentStride = int(unsafe.Sizeof(systems.Agent{}))

	// Storage buffer bindings shared with the shaders.
	agentBinding     = 0
	trailBinding     = 1
	trailNextBinding = 2
)

// ErrShaderCompile is returned when a kernel fails to compile or link. It
// wraps compute.ErrNoDevice so callers can fall back to a disabled run.
var ErrShaderCompile = fmt.Errorf("%w: compute shader", compute.ErrNoDevice)

var kernelSources = [compute.NumKernels]string{
	compute.InitParticles: "shaders/init_particles.glsl",
	compute.MoveParticles: "shaders/move_particles.glsl",
	compute.InitTrail:     "shaders/init_trail.glsl",
	compute.StepTrail:     "shaders/step_trail.glsl",
	compute.Init:          "shaders/init.glsl",
}

// dispatchBarrier makes one dispatch's storage writes visible to the next
// dispatch and to buffer reads from the host.
const dispatchBarrier = gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT

// uniform is one value of the parameter block as it is uploaded.
type uniform struct {
	name  string
	kind  rl.ShaderUniformDataType
	value []float32
}

func floatUniform(name string, v float32) uniform {
	return uniform{name, rl.ShaderUniformFloat, []float32{v}}
}

// intUniform carries the integer bits in the float slice SetShaderValue takes.
func intUniform(name string, v int32) uniform {
	return uniform{name, rl.ShaderUniformInt, []float32{math.Float32frombits(uint32(v))}}
}

// uniforms lays out the parameter block for a device holding count agents
// and a dim x dim field.
func uniforms(p *systems.Params, count, dim int) []uniform {
	hit := int32(0)
	if p.PointerHit {
		hit = 1
	}
	return []uniform{
		floatUniform("deltaTime", p.DeltaTime),
		floatUniform("sensorAngle", p.SensorAngle),
		floatUniform("rotationAngle", p.RotationAngle),
		floatUniform("sensorOffsetDistance", p.SensorOffsetDistance),
		floatUniform("stepSize", p.StepSize),
		floatUniform("decay", p.Decay),
		floatUniform("deposit", p.Deposit),
		floatUniform("startRadius", p.StartRadius),
		floatUniform("randomness", p.Randomness),
		{"pointerUV", rl.ShaderUniformVec2, []float32{p.PointerU, p.PointerV}},
		intUniform("pointerHit", hit),
		floatUniform("pointerRadius", p.PointerRadius),
		floatUniform("pointerChemicalA", p.PointerChemicalA),
		floatUniform("pointerParticleAttraction", p.PointerParticleAttraction),
		intUniform("blurRadius", int32(p.BlurRadius)),
		intUniform("frame", int32(p.Frame)),
		intUniform("seed", int32(p.Seed)),
		intUniform("agentCount", int32(count)),
		floatUniform("fTrailMapDimension", float32(dim)),
		intUniform("iTrailMapDimension", int32(dim)),
		floatUniform("trailMapTexelSize", p.TrailMapTexelSize),
	}
}

// program is one linked compute kernel and its uniform locations.
type program struct {
	shader rl.Shader
	locs   map[string]int32
}

// set uploads u to the bound program. Uniforms a kernel does not use are
// optimised out and have no location.
func (p *program) set(u uniform) {
	if loc, ok := p.locs[u.name]; ok && loc >= 0 {
		rl.SetShaderValue(p.shader, loc, u.value, u.kind)
	}
}

// gpuBinding is the set of storage buffers a kernel sees.
type gpuBinding struct {
	agents uint32
	trail  *trailPair
}

// trailPair is the ping-ponged field. current is what kernels sample.
type trailPair struct {
	current, next uint32
}

// GPUDevice runs the kernels as OpenGL 4.3 compute shaders through rlgl.
// It must be created after the window, on the thread that owns the context.
type GPUDevice struct {
	groupSize int
	programs  [compute.NumKernels]program

	params   systems.Params
	agents   uint32
	count    int
	trail    *trailPair
	dim      int
	bindings [compute.NumKernels]gpuBinding
}

// NewGPUDevice compiles every kernel for the given agent group size.
func NewGPUDevice(groupSize int) (*GPUDevice, error) {
	if groupSize <= 0 {
		groupSize = systems.ParticleGroupSize
	}
	common, err := shaderFS.ReadFile("shaders/common.glsl")
	if err != nil {
		return nil, err
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: loading gl: %v", compute.ErrNoDevice, err)
	}

	d := &GPUDevice{groupSize: groupSize}
	for k := range compute.NumKernels {
		body, err := shaderFS.ReadFile(kernelSources[k])
		if err != nil {
			d.Unload()
			return nil, err
		}
		src := fmt.Sprintf("#version 430\n#define GROUP_SIZE %d\n%s\n%s", groupSize, common, body)

		shader := rl.CompileShader(src, glComputeShader)
		if shader == 0 {
			d.Unload()
			return nil, fmt.Errorf("%w: compile %s", ErrShaderCompile, k)
		}
		id := rl.LoadComputeShaderProgram(shader)
		if id == 0 {
			d.Unload()
			return nil, fmt.Errorf("%w: link %s", ErrShaderCompile, k)
		}

		prog := program{shader: rl.Shader{ID: id}, locs: make(map[string]int32)}
		for _, u := range uniforms(&d.params, 0, 0) {
			prog.locs[u.name] = rl.GetShaderLocation(prog.shader, u.name)
		}
		d.programs[k] = prog
	}

	slog.Info("gpu device ready", "group_size", groupSize, "kernels", int(compute.NumKernels))
	return d, nil
}

func (d *GPUDevice) Name() string   { return "gpu" }
func (d *GPUDevice) GroupSize() int { return d.groupSize }

// ProvisionAgents implements compute.Device.
func (d *GPUDevice) ProvisionAgents(count int) error {
	if count < 1 {
		return fmt.Errorf("%w: %d agents", compute.ErrInvalidSize, count)
	}
	if g := compute.Groups1D(count, d.groupSize); g > systems.MaxGroupsPerDimension {
		return fmt.Errorf("%w: %d groups", compute.ErrDispatchLimit, g)
	}
	if d.agents != 0 {
		rl.UnloadShaderBuffer(d.agents)
		d.agents = 0
	}
	id := rl.LoadShaderBuffer(uint32(count*agentStride), nil, glDynamicCopy)
	if id == 0 {
		d.count = 0
		d.rebind()
		return fmt.Errorf("%w: agent buffer", compute.ErrNoDevice)
	}
	d.agents = id
	d.count = count
	d.rebind()
	return nil
}

// ProvisionTrail implements compute.Device.
func (d *GPUDevice) ProvisionTrail(dim int) error {
	if dim < 1 {
		return fmt.Errorf("%w: trail dimension %d", compute.ErrInvalidSize, dim)
	}
	d.unloadTrail()
	size := uint32(dim * dim * 4)
	pair := &trailPair{
		current: rl.LoadShaderBuffer(size, nil, glDynamicCopy),
		next:    rl.LoadShaderBuffer(size, nil, glDynamicCopy),
	}
	d.trail = pair
	d.dim = dim
	if pair.current == 0 || pair.next == 0 {
		d.unloadTrail()
		d.rebind()
		return fmt.Errorf("%w: trail buffer", compute.ErrNoDevice)
	}
	d.rebind()
	return nil
}

func (d *GPUDevice) unloadTrail() {
	if d.trail == nil {
		return
	}
	if d.trail.current != 0 {
		rl.UnloadShaderBuffer(d.trail.current)
	}
	if d.trail.next != 0 {
		rl.UnloadShaderBuffer(d.trail.next)
	}
	d.trail = nil
	d.dim = 0
}

// rebind points every kernel at the current allocations.
func (d *GPUDevice) rebind() {
	for k := range compute.NumKernels {
		var b gpuBinding
		if k.UsesAgents() {
			b.agents = d.agents
		}
		if k.UsesTrail() {
			b.trail = d.trail
		}
		d.bindings[k] = b
	}
}

// SetParams implements compute.Device. Uniforms are uploaded per dispatch.
func (d *GPUDevice) SetParams(p *systems.Params) {
	d.params = *p
}

func (d *GPUDevice) upload(prog *program) {
	for _, u := range uniforms(&d.params, d.count, d.dim) {
		prog.set(u)
	}
}

// Dispatch implements compute.Device.
func (d *GPUDevice) Dispatch(k compute.Kernel, gx, gy int) error {
	if k < 0 || k >= compute.NumKernels || d.programs[k].shader.ID == 0 {
		return fmt.Errorf("%w: %d", compute.ErrKernelUnbound, int(k))
	}
	if gx < 1 || gy < 1 || gx > systems.MaxGroupsPerDimension || gy > systems.MaxGroupsPerDimension {
		return fmt.Errorf("%w: %s %dx%d", compute.ErrDispatchLimit, k, gx, gy)
	}
	b := d.bindings[k]
	if (k.UsesAgents() && b.agents == 0) || (k.UsesTrail() && b.trail == nil) {
		return fmt.Errorf("%w: %s", compute.ErrNotProvisioned, k)
	}

	prog := &d.programs[k]
	rl.EnableShader(prog.shader.ID)
	d.upload(prog)
	if b.agents != 0 {
		rl.BindShaderBuffer(b.agents, agentBinding)
	}
	if b.trail != nil {
		rl.BindShaderBuffer(b.trail.current, trailBinding)
		rl.BindShaderBuffer(b.trail.next, trailNextBinding)
	}
	rl.ComputeShaderDispatch(uint32(gx), uint32(gy), 1)
	gl.MemoryBarrier(dispatchBarrier)
	rl.DisableShader()

	if k == compute.StepTrail {
		b.trail.current, b.trail.next = b.trail.next, b.trail.current
	}
	return nil
}

// trailBuffer is the generation kernels sample next, as read by ReadTrail.
func (d *GPUDevice) trailBuffer() (id uint32, dim int) {
	if d.trail == nil {
		return 0, 0
	}
	return d.trail.current, d.dim
}

func (d *GPUDevice) AgentCount() int    { return d.count }
func (d *GPUDevice) TrailDimension() int { return d.dim }

// ReadTrail implements compute.Device.
func (d *GPUDevice) ReadTrail(dst []float32) ([]float32, error) {
	if d.trail == nil {
		return dst, fmt.Errorf("%w: trail", compute.ErrNotProvisioned)
	}
	n := d.dim * d.dim
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	rl.ReadShaderBuffer(d.trail.current, unsafe.Pointer(&dst[0]), uint32(n*4), 0)
	return dst, nil
}

// ReadAgents implements compute.Device.
func (d *GPUDevice) ReadAgents(dst []systems.Agent) ([]systems.Agent, error) {
	if d.agents == 0 {
		return dst, fmt.Errorf("%w: agents", compute.ErrNotProvisioned)
	}
	if cap(dst) < d.count {
		dst = make([]systems.Agent, d.count)
	}
	dst = dst[:d.count]
	rl.ReadShaderBuffer(d.agents, unsafe.Pointer(&dst[0]), uint32(d.count*agentStride), 0)
	return dst, nil
}

// WriteTrail implements compute.Device.
func (d *GPUDevice) WriteTrail(src []float32) error {
	if d.trail == nil {
		return fmt.Errorf("%w: trail", compute.ErrNotProvisioned)
	}
	if len(src) != d.dim*d.dim {
		return fmt.Errorf("%w: %d cells for dimension %d", compute.ErrInvalidSize, len(src), d.dim)
	}
	rl.UpdateShaderBuffer(d.trail.current, unsafe.Pointer(&src[0]), uint32(len(src)*4), 0)
	return nil
}

// WriteAgents implements compute.Device.
func (d *GPUDevice) WriteAgents(src []systems.Agent) error {
	if d.agents == 0 {
		return fmt.Errorf("%w: agents", compute.ErrNotProvisioned)
	}
	if len(src) != d.count {
		return fmt.Errorf("%w: %d agents for buffer of %d", compute.ErrInvalidSize, len(src), d.count)
	}
	rl.UpdateShaderBuffer(d.agents, unsafe.Pointer(&src[0]), uint32(len(src)*agentStride), 0)
	return nil
}

// Release implements compute.Device. Programs stay loaded.
func (d *GPUDevice) Release() {
	if d.agents != 0 {
		rl.UnloadShaderBuffer(d.agents)
		d.agents = 0
	}
	d.count = 0
	d.unloadTrail()
	d.rebind()
}

// Unload releases the buffers and every compiled program.
func (d *GPUDevice) Unload() {
	d.Release()
	for k := range d.programs {
		if d.programs[k].shader.ID != 0 {
			rl.UnloadShaderProgram(d.programs[k].shader.ID)
			d.programs[k] = program{}
		}
	}
}

var _ compute.Device = (*GPUDevice)(nil)
