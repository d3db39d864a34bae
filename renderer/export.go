package renderer

import (
	"fmt"
	"image"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ExportPNG writes a colourised dim x dim snapshot to path.
func ExportPNG(path string, cells []float32, dim int, gain float32) error {
	if dim < 1 || len(cells) != dim*dim {
		return fmt.Errorf("export %s: %d cells for dimension %d", path, len(cells), dim)
	}

	pixels := Colorize(cells, gain, nil)
	rgba := image.NewRGBA(image.Rect(0, 0, dim, dim))
	for i, c := range pixels {
		rgba.SetRGBA(i%dim, i/dim, c)
	}

	img := rl.NewImageFromImage(rgba)
	defer rl.UnloadImage(img)
	if !rl.ExportImage(*img, path) {
		return fmt.Errorf("export %s: write failed", path)
	}
	return nil
}
