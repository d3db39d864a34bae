package main

import (
	"context"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/physarum/compute"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/game"
	"github.com/pthm-cable/physarum/telemetry"
)

const frameDT = float32(1.0 / 60.0)

// FitnessEvaluator runs headless simulations and scores the final field.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int
	seeds      []uint32
	workers    int
	baseConfig *config.Config

	mu          sync.Mutex
	bestFitness float64
	bestStats   telemetry.TrailStats
	lastStats   telemetry.TrailStats // mean over seeds of the last Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. workers is the pool size of
// each run's CPU device.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []uint32, workers int, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		ticks:       ticks,
		seeds:       seeds,
		workers:     workers,
		baseConfig:  baseCfg,
		bestFitness: math.Inf(1),
	}
}

// LastStats returns the seed-averaged stats of the most recent evaluation.
func (fe *FitnessEvaluator) LastStats() telemetry.TrailStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStats
}

// BestStats returns the stats of the best evaluation so far.
func (fe *FitnessEvaluator) BestStats() telemetry.TrailStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestStats
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated coefficient of variation of the final field:
// sharp, well-separated veins score high CV.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]telemetry.TrailStats, len(fe.seeds))

	g, _ := errgroup.WithContext(context.Background())
	for i, seed := range fe.seeds {
		g.Go(func() error {
			stats, err := fe.runSimulation(x, seed)
			if err != nil {
				return err
			}
			results[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("evaluation failed: %v\n", err)
		return 0
	}

	var mean telemetry.TrailStats
	for _, r := range results {
		mean.CV += r.CV
		mean.Coverage += r.Coverage
		mean.Max += r.Max
		mean.Total += r.Total
	}
	n := float64(len(results))
	mean.CV /= n
	mean.Coverage /= n
	mean.Max /= n
	mean.Total /= n

	fitness := fe.computeFitness(mean)

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestStats = mean
	}
	fe.lastStats = mean
	fe.mu.Unlock()

	return fitness
}

// computeFitness scores a run. A field that collapsed to nothing gets no
// credit for its variance.
func (fe *FitnessEvaluator) computeFitness(s telemetry.TrailStats) float64 {
	if s.Total <= 0 || math.IsNaN(s.CV) {
		return 0
	}
	return -s.CV
}

// runSimulation executes a single headless run and reduces the final field.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed uint32) (telemetry.TrailStats, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	cfg.Simulation.Seed = seed
	cfg.Telemetry.StatsWindow = 0

	dev := compute.NewCPUDevice(cfg.Derived.GroupSize, fe.workers)
	sim, err := game.New(dev, cfg, game.Options{})
	if err != nil {
		return telemetry.TrailStats{}, fmt.Errorf("seed %d: %w", seed, err)
	}
	defer sim.Close()

	sim.Step(fe.ticks, frameDT)
	if !sim.Enabled() {
		return telemetry.TrailStats{}, fmt.Errorf("seed %d: simulation disabled", seed)
	}

	cells, err := sim.ReadTrail(nil)
	if err != nil {
		return telemetry.TrailStats{}, fmt.Errorf("seed %d: %w", seed, err)
	}
	stats := telemetry.ComputeTrailStats(cells, sim.Dimension(), cfg.Telemetry.CoverageThreshold)
	stats.Frame = sim.Frame()
	stats.Agents = sim.AgentCount()
	return stats, nil
}

// copyConfig returns a copy of the base config. Config holds only values,
// so a struct copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
