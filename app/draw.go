package app

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/telemetry"
	"github.com/pthm-cable/physarum/ui"
)

const controlsLegend = "Space: pause | R: restart | E: PNG | F5/F9: checkpoint | Arrows/Wheel/RMB: pan & zoom | Home: reset view | H: keys"

// Draw renders one host frame.
func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	a.drawField()
	a.drawUI()

	rl.EndDrawing()
}

// drawField draws the field through the camera. Without an attached device
// the field is read back and uploaded first.
func (a *App) drawField() {
	if !a.sim.Enabled() {
		return
	}
	if a.view.Direct() {
		a.view.Draw(a.camera)
		return
	}
	cells, err := a.sim.ReadTrail(a.readback)
	if err != nil {
		slog.Error("failed to read trail", "error", err)
		return
	}
	a.readback = cells
	a.view.Update(cells, a.sim.Dimension())
	a.view.Draw(a.camera)
}

func (a *App) drawUI() {
	left := int32(a.camera.ViewportX)

	a.hud.Draw(left+10, 10, ui.HUDData{
		Title:     a.title,
		Backend:   a.cfg.Compute.Backend,
		Agents:    a.sim.AgentCount(),
		Dimension: a.sim.Dimension(),
		Frame:     a.sim.Frame(),
		SimTime:   a.sim.SimTime(),
		FPS:       rl.GetFPS(),
		Active:    a.sim.Active(),
		Enabled:   a.sim.Enabled(),
	})
	a.hud.DrawControls(left+10, int32(a.screenHeight), controlsLegend)

	if a.overlays.IsEnabled(ui.OverlayPerf) {
		a.perfPanel.Draw(a.perf.Stats())
	}
	if a.overlays.IsEnabled(ui.OverlayStats) {
		a.drawTrailStats(int32(a.screenWidth) - 250)
	}
	if a.overlays.IsEnabled(ui.OverlayHelp) {
		a.hud.DrawHelp(left+10, int32(a.screenHeight)-160, a.overlays)
	}

	// Drawn last so it sits above the field.
	next, changed := a.controls.Draw(a.sim.Runtime(), a.sim.Settings(), int32(a.screenHeight))
	if changed {
		a.apply(next)
	}
}

// drawTrailStats shows the last stats window, or a live one when no window
// has been emitted yet.
func (a *App) drawTrailStats(x int32) {
	stats := a.lastStats
	if stats.Dim == 0 && len(a.readback) > 0 {
		stats = telemetry.ComputeTrailStats(a.readback, a.sim.Dimension(), a.cfg.Telemetry.CoverageThreshold)
	}
	a.hud.DrawTrailStats(x, 10, stats)
}
