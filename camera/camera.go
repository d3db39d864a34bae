// Package camera provides a 2D camera over the unit-torus field.
package camera

import "math"

// Camera controls the viewport into field space. Field coordinates are
// UV in [0, 1) and wrap on both axes, so the view can repeat the field.
type Camera struct {
	// Centre of the view in field coordinates
	U, V float32

	// Zoom level (1.0 = the field fills the shorter viewport side)
	Zoom float32

	// Viewport rectangle in screen pixels
	ViewportX, ViewportY float32
	ViewportW, ViewportH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centred on the field at zoom 1.
func New(x, y, w, h float32) *Camera {
	return &Camera{
		U:         0.5,
		V:         0.5,
		Zoom:      1.0,
		ViewportX: x,
		ViewportY: y,
		ViewportW: w,
		ViewportH: h,
		MinZoom:   0.25,
		MaxZoom:   16,
	}
}

// Scale returns screen pixels per field unit.
func (c *Camera) Scale() float32 {
	return min(c.ViewportW, c.ViewportH) * c.Zoom
}

func (c *Camera) centre() (cx, cy float32) {
	return c.ViewportX + c.ViewportW/2, c.ViewportY + c.ViewportH/2
}

// UVToScreen converts a field position to screen coordinates along the
// shortest toroidal path from the view centre.
func (c *Camera) UVToScreen(u, v float32) (sx, sy float32) {
	cx, cy := c.centre()
	s := c.Scale()
	return cx + toroidalDelta(u, c.U)*s, cy + toroidalDelta(v, c.V)*s
}

// ScreenToUV converts screen coordinates to a wrapped field position.
// inside is false when the point lies outside the viewport.
func (c *Camera) ScreenToUV(sx, sy float32) (u, v float32, inside bool) {
	inside = sx >= c.ViewportX && sx < c.ViewportX+c.ViewportW &&
		sy >= c.ViewportY && sy < c.ViewportY+c.ViewportH

	cx, cy := c.centre()
	s := c.Scale()
	u = wrap(c.U + (sx-cx)/s)
	v = wrap(c.V + (sy-cy)/s)
	return u, v, inside
}

// Resize updates the viewport rectangle.
func (c *Camera) Resize(x, y, w, h float32) {
	c.ViewportX, c.ViewportY = x, y
	c.ViewportW, c.ViewportH = w, h
}

// Pan moves the view by a delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.U = wrap(c.U + dx/s)
	c.V = wrap(c.V + dy/s)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor while keeping the field point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	u, v, _ := c.ScreenToUV(sx, sy)
	c.ZoomBy(factor)
	ax, ay := c.UVToScreen(u, v)
	c.Pan(ax-sx, ay-sy)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.U, c.V = 0.5, 0.5
	c.Zoom = 1.0
}

// VisibleBounds returns the unwrapped field-space bounds of the viewport.
// Values outside [0, 1) mean the view shows a repeat of the field.
func (c *Camera) VisibleBounds() (minU, minV, maxU, maxV float32) {
	s := c.Scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)
	return c.U - halfW, c.V - halfH, c.U + halfW, c.V + halfH
}

// Tile is the screen rectangle of one repeat of the field.
type Tile struct {
	X, Y, Size float32
}

// Tiles returns every field repeat that intersects the viewport.
func (c *Camera) Tiles() []Tile {
	minU, minV, maxU, maxV := c.VisibleBounds()
	cx, cy := c.centre()
	s := c.Scale()

	var tiles []Tile
	for ty := floor(minV); ty < maxV; ty++ {
		for tx := floor(minU); tx < maxU; tx++ {
			tiles = append(tiles, Tile{
				X:    cx + (tx-c.U)*s,
				Y:    cy + (ty-c.V)*s,
				Size: s,
			})
		}
	}
	return tiles
}

// toroidalDelta computes the shortest signed distance from 'from' to 'to'
// on the unit torus.
func toroidalDelta(to, from float32) float32 {
	d := to - from
	if d > 0.5 {
		d -= 1
	} else if d < -0.5 {
		d += 1
	}
	return d
}

// wrap folds x into [0, 1).
func wrap(x float32) float32 {
	r := x - floor(x)
	if r >= 1 {
		r = 0
	}
	return r
}

func floor(x float32) float32 {
	return float32(math.Floor(float64(x)))
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
