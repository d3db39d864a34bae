package compute

import (
	"fmt"

	"github.com/pthm-cable/physarum/systems"
)

// Groups1D returns the number of groups covering n invocations.
func Groups1D(n, groupSize int) int {
	if n <= 0 {
		return 0
	}
	return (n + groupSize - 1) / groupSize
}

// Groups2D returns the tile counts covering a dim x dim field.
func Groups2D(dim int) (x, y int) {
	if dim <= 0 {
		return 0, 0
	}
	x = (dim + systems.TrailTileX - 1) / systems.TrailTileX
	y = (dim + systems.TrailTileY - 1) / systems.TrailTileY
	return x, y
}

func checkGroups(k Kernel, gx, gy int) error {
	if gx > systems.MaxGroupsPerDimension || gy > systems.MaxGroupsPerDimension {
		return fmt.Errorf("%w: %s %dx%d", ErrDispatchLimit, k, gx, gy)
	}
	return nil
}
