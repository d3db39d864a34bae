package renderer

import (
	"bufio"
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/pthm-cable/physarum/systems"
)

// declaredUniforms returns name -> GLSL type for every uniform in common.glsl.
func declaredUniforms(t *testing.T) map[string]string {
	t.Helper()
	src, err := shaderFS.ReadFile("shaders/common.glsl")
	if err != nil {
		t.Fatalf("reading common.glsl: %v", err)
	}
	decls := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		fields := strings.Fields(strings.TrimSuffix(strings.TrimSpace(sc.Text()), ";"))
		if len(fields) == 3 && fields[0] == "uniform" {
			decls[fields[2]] = fields[1]
		}
	}
	return decls
}

func TestUniformsMatchShaderDeclarations(t *testing.T) {
	decls := declaredUniforms(t)

	p := &systems.Params{}
	p.SetTrailDimension(64)
	us := uniforms(p, 1000, 64)
	if len(us) != len(decls) {
		t.Errorf("uploading %d uniforms, shaders declare %d", len(us), len(decls))
	}

	want := map[string]struct {
		kind rl.ShaderUniformDataType
		n    int
	}{
		"float": {rl.ShaderUniformFloat, 1},
		"vec2":  {rl.ShaderUniformVec2, 2},
		"int":   {rl.ShaderUniformInt, 1},
	}
	seen := make(map[string]bool)
	for _, u := range us {
		if seen[u.name] {
			t.Errorf("%s uploaded twice", u.name)
		}
		seen[u.name] = true

		typ, ok := decls[u.name]
		if !ok {
			t.Errorf("%s is not declared in common.glsl", u.name)
			continue
		}
		w := want[typ]
		if u.kind != w.kind || len(u.value) != w.n {
			t.Errorf("%s (%s): kind %d with %d components, want kind %d with %d",
				u.name, typ, u.kind, len(u.value), w.kind, w.n)
		}
	}
}

func TestUniformsCarryPointer(t *testing.T) {
	p := &systems.Params{PointerU: 0.25, PointerV: 0.75, PointerHit: true}
	for _, u := range uniforms(p, 10, 8) {
		switch u.name {
		case "pointerUV":
			if u.value[0] != 0.25 || u.value[1] != 0.75 {
				t.Errorf("pointerUV = %v, want [0.25 0.75]", u.value)
			}
		case "pointerHit":
			if got := int32(math.Float32bits(u.value[0])); got != 1 {
				t.Errorf("pointerHit = %d, want 1", got)
			}
		}
	}
}

func TestIntUniformKeepsBits(t *testing.T) {
	for _, v := range []int32{0, 1, 600, -1, math.MaxInt32} {
		u := intUniform("frame", v)
		if got := int32(math.Float32bits(u.value[0])); got != v {
			t.Errorf("intUniform(%d) carries %d", v, got)
		}
	}
}

var bufferDecl = regexp.MustCompile(`binding\s*=\s*(\d+)\)\s*(?:readonly\s+)?buffer\s+(\w+)`)

// bufferBindings returns block name -> binding for the storage buffers in file.
func bufferBindings(t *testing.T, file string) map[string]uint32 {
	t.Helper()
	src, err := shaderFS.ReadFile(file)
	if err != nil {
		t.Fatalf("reading %s: %v", file, err)
	}
	out := make(map[string]uint32)
	for _, m := range bufferDecl.FindAllStringSubmatch(string(src), -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			t.Fatalf("%s: binding %q: %v", file, m[1], err)
		}
		out[m[2]] = uint32(n)
	}
	return out
}

func TestShaderBufferBindings(t *testing.T) {
	kernels := bufferBindings(t, "shaders/common.glsl")
	want := map[string]uint32{
		"AgentBuffer":     agentBinding,
		"TrailBuffer":     trailBinding,
		"TrailNextBuffer": trailNextBinding,
	}
	for name, b := range want {
		if got, ok := kernels[name]; !ok || got != b {
			t.Errorf("common.glsl %s at binding %d (declared %v), want %d", name, got, ok, b)
		}
	}

	// The view samples the generation the kernels read from.
	view := bufferBindings(t, "shaders/trail_view_frag.glsl")
	if got, ok := view["TrailBuffer"]; !ok || got != trailBinding {
		t.Errorf("trail_view_frag.glsl TrailBuffer at binding %d (declared %v), want %d", got, ok, trailBinding)
	}
}

func TestDispatchBarrierCoversReadback(t *testing.T) {
	// Kernels read storage written by the previous dispatch; the host reads
	// it back with a buffer copy.
	for name, bit := range map[string]uint32{
		"SHADER_STORAGE_BARRIER_BIT": gl.SHADER_STORAGE_BARRIER_BIT,
		"BUFFER_UPDATE_BARRIER_BIT":  gl.BUFFER_UPDATE_BARRIER_BIT,
	} {
		if dispatchBarrier&bit == 0 {
			t.Errorf("dispatch barrier is missing %s", name)
		}
	}
}
