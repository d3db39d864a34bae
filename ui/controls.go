package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/game"
)

// sliderSpec binds one runtime tunable to a slider.
type sliderSpec struct {
	Label    string
	Min, Max float32
	Format   string
	Value    func(rt *game.Runtime) *float64
}

// runtimeSliders lists the per-frame tunables in panel order.
var runtimeSliders = []sliderSpec{
	{"Start radius", 0, 1, "%.3f", func(rt *game.Runtime) *float64 { return &rt.StartRadius }},
	{"Deposit", 0, 1, "%.3f", func(rt *game.Runtime) *float64 { return &rt.Deposit }},
	{"Decay", 0, 1, "%.4f", func(rt *game.Runtime) *float64 { return &rt.Decay }},
	{"Sensor angle", 0, 180, "%.1f°", func(rt *game.Runtime) *float64 { return &rt.SensorAngleDegrees }},
	{"Rotation", 0, 180, "%.1f°", func(rt *game.Runtime) *float64 { return &rt.RotationAngleDegrees }},
	{"Sensor offset", 0, 0.1, "%.4f", func(rt *game.Runtime) *float64 { return &rt.SensorOffsetDistance }},
	{"Step size", 0, 0.01, "%.4f", func(rt *game.Runtime) *float64 { return &rt.StepSize }},
	{"Randomness", 0, 1, "%.2f", func(rt *game.Runtime) *float64 { return &rt.Randomness }},
}

var pointerSliders = []sliderSpec{
	{"Radius", 0, 1, "%.3f", func(rt *game.Runtime) *float64 { return &rt.Pointer.Radius }},
	{"Chemical A", -1, 1, "%.2f", func(rt *game.Runtime) *float64 { return &rt.Pointer.ChemicalA }},
	{"Attraction", -1, 1, "%.2f", func(rt *game.Runtime) *float64 { return &rt.Pointer.ParticleAttraction }},
}

// ControlPanel renders the side panel of runtime controls. Tunables are
// edited in place; size and lifecycle edits are returned as Settings.
type ControlPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlPanel creates a new control panel.
func NewControlPanel(x, y, width int32) *ControlPanel {
	return &ControlPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlPanel) IsVisible() bool {
	return c.visible
}

// Width returns the panel width in pixels.
func (c *ControlPanel) Width() int32 {
	return c.width
}

// Draw renders the panel. rt is edited in place. The returned Settings
// differ from cur when the user changed a size, toggled active or pressed
// restart; changed reports that case.
func (c *ControlPanel) Draw(rt *game.Runtime, cur game.Settings, height int32) (next game.Settings, changed bool) {
	next = cur
	if !c.visible {
		return next, false
	}

	r := c.renderer
	padding := r.Theme.Padding
	x := c.x + padding
	w := c.width - padding*2

	r.DrawPanel(c.x, c.y, c.width, height)
	y := c.y + padding

	rl.DrawText("Physarum", x, y, 16, rl.White)
	y += r.Theme.LineHeight + 8

	y = r.DrawSectionHeader(x, y, "Agents")
	for _, s := range runtimeSliders {
		y = c.slider(x, y, w, s, rt)
	}
	y += 4

	y = r.DrawSectionHeader(x, y, "Pointer")
	for _, s := range pointerSliders {
		y = c.slider(x, y, w, s, rt)
	}
	y += 4

	y = r.DrawSectionHeader(x, y, "Allocation")
	var n int
	n, y = c.stepper(x, y, w, "Particles", cur.ParticleCount)
	next.ParticleCount = n
	n, y = c.stepper(x, y, w, "Dimension", cur.Dimension)
	next.Dimension = n
	y += 4

	next.Active = gui.CheckBox(rl.Rectangle{X: float32(x), Y: float32(y), Width: 16, Height: 16}, "Active", cur.Active)
	y += r.Theme.LineHeight + 8

	if gui.Button(rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(w), Height: 24}, "Restart") {
		next.Restart = true
	}

	changed = next != cur
	return next, changed
}

// slider draws one labelled slider bound to a runtime field.
func (c *ControlPanel) slider(x, y, w int32, s sliderSpec, rt *game.Runtime) int32 {
	r := c.renderer
	v := s.Value(rt)

	rl.DrawText(s.Label, x, y, r.Theme.FontSize, r.Theme.LabelColor)
	value := fmt.Sprintf(s.Format, *v)
	vw := rl.MeasureText(value, r.Theme.FontSize)
	rl.DrawText(value, x+w-vw, y, r.Theme.FontSize, r.Theme.ValueColor)
	y += r.Theme.FontSize + 2

	bounds := rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(w), Height: float32(r.Theme.SliderHeight)}
	got := gui.SliderBar(bounds, "", "", float32(*v), s.Min, s.Max)
	if got != float32(*v) {
		*v = float64(got)
	}
	return y + r.Theme.SliderHeight + 6
}

// stepper draws a value with halve/double buttons.
func (c *ControlPanel) stepper(x, y, w int32, label string, value int) (int, int32) {
	r := c.renderer
	rl.DrawText(label, x, y+4, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(fmt.Sprintf("%d", value), x+r.Theme.LabelWidth, y+4, r.Theme.FontSize, r.Theme.ValueColor)

	bw := float32(24)
	if gui.Button(rl.Rectangle{X: float32(x+w) - 2*bw - 4, Y: float32(y), Width: bw, Height: 20}, "-") {
		value = max(value/2, 1)
	}
	if gui.Button(rl.Rectangle{X: float32(x+w) - bw, Y: float32(y), Width: bw, Height: 20}, "+") {
		value *= 2
	}
	return value, y + 26
}
