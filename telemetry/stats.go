package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/stat"
)

// TrailStats summarises one read-back of the trail field.
type TrailStats struct {
	Frame   uint32  `csv:"frame"`
	SimTime float64 `csv:"sim_time"`
	Agents  int     `csv:"agents"`
	Dim     int     `csv:"dim"`

	Total  float64 `csv:"total"`
	Mean   float64 `csv:"mean"`
	StdDev float64 `csv:"std"`
	CV     float64 `csv:"cv"` // StdDev / Mean; high values mean sharp networks
	P50    float64 `csv:"p50"`
	P90    float64 `csv:"p90"`
	Max    float64 `csv:"max"`
	MaxX   int     `csv:"max_x"`
	MaxY   int     `csv:"max_y"`

	// Fraction of cells at or above the coverage threshold
	Coverage float64 `csv:"coverage"`
}

// ComputeTrailStats reduces a dim x dim field. cells is not modified.
func ComputeTrailStats(cells []float32, dim int, coverageThreshold float64) TrailStats {
	s := TrailStats{Dim: dim}
	n := len(cells)
	if n == 0 {
		return s
	}

	// Field values are non-negative after every step, so Asum is the plain sum.
	vec := blas32.Vector{N: n, Inc: 1, Data: cells}
	s.Total = float64(blas32.Asum(vec))
	imax := blas32.Iamax(vec)
	s.Max = float64(cells[imax])
	if dim > 0 {
		s.MaxX, s.MaxY = imax%dim, imax/dim
	}

	values := make([]float64, n)
	covered := 0
	for i, c := range cells {
		values[i] = float64(c)
		if values[i] >= coverageThreshold {
			covered++
		}
	}
	s.Coverage = float64(covered) / float64(n)

	s.Mean, s.StdDev = stat.PopMeanStdDev(values, nil)
	if s.Mean > 0 {
		s.CV = s.StdDev / s.Mean
	}

	sort.Float64s(values)
	s.P50 = stat.Quantile(0.5, stat.Empirical, values, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, values, nil)

	if math.IsNaN(s.CV) {
		s.CV = 0
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s TrailStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("frame", int(s.Frame)),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("agents", s.Agents),
		slog.Int("dim", s.Dim),
		slog.Float64("total", s.Total),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.StdDev),
		slog.Float64("cv", s.CV),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
		slog.Float64("max", s.Max),
		slog.Float64("coverage", s.Coverage),
	)
}

// LogStats logs the trail stats using slog.
func (s TrailStats) LogStats() {
	slog.Info("trail",
		"frame", s.Frame,
		"sim_time", s.SimTime,
		"agents", s.Agents,
		"total", s.Total,
		"cv", s.CV,
		"max", s.Max,
		"coverage", s.Coverage,
	)
}
