package renderer

import (
	"fmt"
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/camera"
)

// TrailView draws the trail field as a colour-ramped texture, repeated
// across the viewport wherever the camera shows the torus wrapping.
type TrailView struct {
	// Exposure applied before the ramp lookup.
	Gain float32

	tex    rl.Texture2D
	dim    int
	pixels []color.RGBA

	initialized bool

	// Device path: the field is sampled from the trail buffer in a fragment
	// shader and only the ramp lives in a texture.
	device  *GPUDevice
	shader  rl.Shader
	rampTex rl.Texture2D
	dimLoc  int32
	gainLoc int32
}

// NewTrailView creates a view with unit gain. The texture is created on the
// first Update, after the window exists.
func NewTrailView() *TrailView {
	return &TrailView{Gain: 1}
}

func (v *TrailView) init(dim int) {
	if v.initialized {
		rl.UnloadTexture(v.tex)
	}
	img := rl.GenImageColor(dim, dim, rl.Black)
	v.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(v.tex, rl.FilterPoint)
	rl.SetTextureWrap(v.tex, rl.WrapRepeat)
	rl.UnloadImage(img)

	v.dim = dim
	v.initialized = true
}

// AttachDevice switches the view to drawing d's trail buffer directly, so
// frames need no readback. Call after the window exists.
func (v *TrailView) AttachDevice(d *GPUDevice) error {
	vs, err := shaderFS.ReadFile("shaders/trail_view_vert.glsl")
	if err != nil {
		return err
	}
	fs, err := shaderFS.ReadFile("shaders/trail_view_frag.glsl")
	if err != nil {
		return err
	}
	// raylib falls back to its default shader when a stage fails to build.
	shader := rl.LoadShaderFromMemory(string(vs), string(fs))
	if !rl.IsShaderValid(shader) || shader.ID == rl.GetShaderIdDefault() {
		return fmt.Errorf("%w: trail view", ErrShaderCompile)
	}

	img := rl.GenImageColor(len(ramp), 1, rl.Black)
	v.rampTex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.UpdateTexture(v.rampTex, ramp[:])
	rl.SetTextureWrap(v.rampTex, rl.WrapClamp)

	v.shader = shader
	v.dimLoc = rl.GetShaderLocation(shader, "iTrailMapDimension")
	v.gainLoc = rl.GetShaderLocation(shader, "gain")
	v.device = d
	return nil
}

// Direct reports whether the view draws from an attached device.
func (v *TrailView) Direct() bool { return v.device != nil }

// Update uploads a dim x dim snapshot. A new dimension recreates the texture.
func (v *TrailView) Update(cells []float32, dim int) {
	if dim < 1 || len(cells) != dim*dim {
		return
	}
	if !v.initialized || dim != v.dim {
		v.init(dim)
	}
	v.pixels = Colorize(cells, v.Gain, v.pixels)
	rl.UpdateTexture(v.tex, v.pixels)
}

// Draw renders every visible repeat of the field, clipped to the viewport.
func (v *TrailView) Draw(cam *camera.Camera) {
	if v.device != nil {
		v.drawDevice(cam)
		return
	}
	if !v.initialized {
		return
	}
	v.drawTiles(cam, v.tex, float32(v.dim), float32(v.dim))
}

func (v *TrailView) drawDevice(cam *camera.Camera) {
	buf, dim := v.device.trailBuffer()
	if buf == 0 {
		return
	}
	rl.BeginShaderMode(v.shader)
	rl.SetShaderValue(v.shader, v.dimLoc, []float32{math.Float32frombits(uint32(dim))}, rl.ShaderUniformInt)
	rl.SetShaderValue(v.shader, v.gainLoc, []float32{v.Gain}, rl.ShaderUniformFloat)
	rl.BindShaderBuffer(buf, trailBinding)
	v.drawTiles(cam, v.rampTex, float32(len(ramp)), 1)
	rl.EndShaderMode()
}

// drawTiles stretches the whole of tex over each camera tile.
func (v *TrailView) drawTiles(cam *camera.Camera, tex rl.Texture2D, w, h float32) {
	rl.BeginScissorMode(int32(cam.ViewportX), int32(cam.ViewportY), int32(cam.ViewportW), int32(cam.ViewportH))
	srcRect := rl.Rectangle{X: 0, Y: 0, Width: w, Height: h}
	for _, t := range cam.Tiles() {
		dstRect := rl.Rectangle{X: t.X, Y: t.Y, Width: t.Size, Height: t.Size}
		rl.DrawTexturePro(tex, srcRect, dstRect, rl.Vector2{}, 0, rl.White)
	}
	rl.EndScissorMode()
}

// Unload frees GPU resources.
func (v *TrailView) Unload() {
	if v.device != nil {
		rl.UnloadShader(v.shader)
		rl.UnloadTexture(v.rampTex)
		v.device = nil
	}
	if !v.initialized {
		return
	}
	rl.UnloadTexture(v.tex)
	v.initialized = false
}
