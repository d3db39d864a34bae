package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Backend   string
	Agents    int
	Dimension int
	Frame     uint32
	SimTime   float64
	FPS       int32
	Active    bool
	Enabled   bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD at the top-left of the viewport.
func (h *HUD) Draw(x, y int32, data HUDData) {
	rl.DrawText(data.Title, x, y, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %d | Field: %dx%d | Backend: %s", data.Agents, data.Dimension, data.Dimension, data.Backend),
		x, y+25, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Frame: %d | Time: %.1fs | FPS: %d", data.Frame, data.SimTime, data.FPS),
		x, y+45, 16, rl.LightGray,
	)

	switch {
	case !data.Enabled:
		rl.DrawText("DISABLED (no compute device)", x, y+65, 16, rl.Red)
	case !data.Active:
		rl.DrawText("PAUSED", x, y+65, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(x, screenHeight int32, controls string) {
	rl.DrawText(controls, x, screenHeight-25, 14, rl.Gray)
}

// DrawHelp lists every overlay key binding.
func (h *HUD) DrawHelp(x, y int32, overlays *OverlayRegistry) {
	r := h.renderer
	all := overlays.All()
	height := int32(len(all)+1)*r.Theme.LineHeight + r.Theme.Padding*2
	r.DrawPanel(x, y, 220, height)

	cy := y + r.Theme.Padding
	cy = r.DrawSectionHeader(x+r.Theme.Padding, cy, "Keys")
	for _, desc := range all {
		state := "off"
		if overlays.IsEnabled(desc.ID) {
			state = "on"
		}
		cy = r.DrawLabelValue(x+r.Theme.Padding, cy, "["+desc.KeyLabel+"]", desc.Name+" ("+state+")")
	}
}

// trailStatsPanel describes the trail statistics panel over telemetry.TrailStats.
var trailStatsPanel = PanelDescriptor{
	ID:    "trail_stats",
	Title: "Trail Field",
	Width: 240,
	Sections: []SectionDescriptor{
		{
			ID:    "mass",
			Title: "Mass",
			Fields: []FieldDescriptor{
				{ID: "total", Label: "Total", Widget: WidgetText, Format: "%.1f", Getter: statGetter(func(s telemetry.TrailStats) float64 { return s.Total })},
				{ID: "mean", Label: "Mean", Widget: WidgetText, Format: "%.4f", Getter: statGetter(func(s telemetry.TrailStats) float64 { return s.Mean })},
				{ID: "max", Label: "Max", Widget: WidgetText, Format: "%.3f", Getter: statGetter(func(s telemetry.TrailStats) float64 { return s.Max })},
			},
		},
		{
			ID:    "structure",
			Title: "Structure",
			Fields: []FieldDescriptor{
				{ID: "cv", Label: "CV", Widget: WidgetText, Format: "%.3f", Getter: statGetter(func(s telemetry.TrailStats) float64 { return s.CV })},
				{ID: "p90", Label: "p90", Widget: WidgetText, Format: "%.4f", Getter: statGetter(func(s telemetry.TrailStats) float64 { return s.P90 })},
				{ID: "coverage", Label: "Coverage", Widget: WidgetBar, Range: DefaultRange(), Getter: statGetter(func(s telemetry.TrailStats) float64 { return s.Coverage })},
			},
		},
		{
			ID:      "peak",
			Title:   "Peak",
			Visible: func(data any) bool { return statsOf(data).Max > 0 },
			Fields: []FieldDescriptor{
				{ID: "peak_cell", Label: "Cell", Widget: WidgetText, TextGetter: func(data any) string {
					s := statsOf(data)
					return fmt.Sprintf("(%d, %d)", s.MaxX, s.MaxY)
				}},
				{ID: "peak_share", Label: "Share", Widget: WidgetBar, Range: FieldRange{Min: 0, Max: 0.01}, Getter: statGetter(func(s telemetry.TrailStats) float64 {
					if s.Total <= 0 {
						return 0
					}
					return s.Max / s.Total
				})},
				{ID: "peak_gap", Widget: WidgetSpacer},
				{ID: "window", Label: "Window", Widget: WidgetSection},
				{ID: "frame", Label: "Frame", Widget: WidgetText, TextGetter: func(data any) string { return fmt.Sprintf("%d", statsOf(data).Frame) }},
				{ID: "empty", Label: "State", Widget: WidgetText, Visible: func(data any) bool { return statsOf(data).Coverage == 0 }, TextGetter: func(any) string { return "below threshold" }},
			},
		},
	},
}

func statsOf(data any) telemetry.TrailStats {
	s, _ := data.(telemetry.TrailStats)
	return s
}

func statGetter(f func(telemetry.TrailStats) float64) func(any) float32 {
	return func(data any) float32 {
		return float32(f(statsOf(data)))
	}
}

// DrawTrailStats renders the most recent trail statistics window.
func (h *HUD) DrawTrailStats(x, y int32, stats telemetry.TrailStats) int32 {
	return h.renderer.DrawPanelDescriptor(x, y, trailStatsPanel, stats)
}

// PerfPanel renders the frame phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Timing", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  Max: %s",
		stats.AvgFrame.Round(time.Microsecond), stats.MaxFrame.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for ph := range telemetry.NumPhases {
		pct := stats.PhasePct[ph]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-16s %6s %5.1f%%", ph, stats.PhaseAvg[ph].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
