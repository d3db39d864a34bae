package app

import (
	"fmt"
	"log/slog"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/game"
	"github.com/pthm-cable/physarum/renderer"
	"github.com/pthm-cable/physarum/ui"
)

// handleInput processes keyboard and mouse input.
func (a *App) handleInput() {
	a.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		a.sim.SetActive(!a.sim.Active())
	}

	if rl.IsKeyPressed(rl.KeyR) {
		set := a.sim.Settings()
		set.Restart = true
		a.apply(set)
	}

	if rl.IsKeyPressed(rl.KeyE) {
		a.exportSnapshot()
	}
	if rl.IsKeyPressed(rl.KeyF5) {
		a.saveCheckpoint()
	}
	if rl.IsKeyPressed(rl.KeyF9) {
		a.restoreCheckpoint()
	}

	a.overlays.PollKeys()
	a.relayout()

	a.handleCameraInput()
}

// apply pushes settings from the panel or keyboard to the simulation.
func (a *App) apply(set game.Settings) {
	if err := a.sim.Apply(set); err != nil {
		slog.Error("failed to apply settings", "error", err)
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (a *App) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == a.screenWidth && h == a.screenHeight {
		return
	}
	a.screenWidth = w
	a.screenHeight = h
	a.relayout()
}

// relayout gives the viewport the space the control panel does not use.
func (a *App) relayout() {
	visible := a.overlays.IsEnabled(ui.OverlayControls)
	a.controls.SetVisible(visible)

	var left float32
	if visible {
		left = float32(a.controls.Width())
	}
	a.camera.Resize(left, 0, a.screenWidth-left, a.screenHeight)
	a.perfPanel.SetPosition(int32(left)+10, 100)
}

// handleCameraInput processes camera pan/zoom controls.
func (a *App) handleCameraInput() {
	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0) / a.camera.Zoom

	if rl.IsKeyDown(rl.KeyRight) {
		a.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		a.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		a.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		a.camera.Pan(0, -panSpeed)
	}

	mouse := rl.GetMousePosition()
	_, _, overView := a.camera.ScreenToUV(mouse.X, mouse.Y)

	// Right-drag pans
	if overView && rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		a.camera.Pan(-d.X, -d.Y)
	}

	// Zoom toward the cursor
	if wheel := rl.GetMouseWheelMove(); wheel != 0 && overView {
		a.camera.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}

	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		a.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		a.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		a.camera.Reset()
	}
}

// pollMouse is the simulation's pointer: the left button over the viewport.
func (a *App) pollMouse() (u, v float32, hit bool) {
	if !rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		return 0, 0, false
	}
	mouse := rl.GetMousePosition()
	return a.camera.ScreenToUV(mouse.X, mouse.Y)
}

// exportSnapshot writes the current field as a PNG.
func (a *App) exportSnapshot() {
	cells, err := a.sim.ReadTrail(a.readback)
	if err != nil {
		slog.Error("failed to read trail", "error", err)
		return
	}
	a.readback = cells

	a.snapshots++
	path := filepath.Join(a.snapDir, fmt.Sprintf("trail_%06d_%02d.png", a.sim.Frame(), a.snapshots))
	if err := renderer.ExportPNG(path, cells, a.sim.Dimension(), a.view.Gain); err != nil {
		slog.Error("failed to export snapshot", "error", err)
		return
	}
	slog.Info("snapshot written", "path", path, "frame", a.sim.Frame())
}

// saveCheckpoint captures the simulation state in memory.
func (a *App) saveCheckpoint() {
	snap, err := a.sim.Snapshot()
	if err != nil {
		slog.Error("failed to capture checkpoint", "error", err)
		return
	}
	a.checkpoint = snap
	slog.Info("checkpoint saved", "frame", snap.Frame)
}

// restoreCheckpoint rewinds to the last checkpoint, if any.
func (a *App) restoreCheckpoint() {
	if a.checkpoint == nil {
		slog.Warn("no checkpoint to restore")
		return
	}
	if err := a.sim.Restore(a.checkpoint); err != nil {
		slog.Error("failed to restore checkpoint", "error", err)
	}
}
