package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/quantrail/riskforge/pkg/service/montecarlo"
)

// Simulation holds CLI flags shared by commands that execute runs
type Simulation struct {
	iterations    int
	seed          int
	workers       int
	correctMatrix bool
	top           int
}

// Flags returns CLI flags for simulation configuration
func (s *Simulation) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "iterations",
			Aliases:     []string{"n"},
			Usage:       "Number of simulation iterations",
			Value:       montecarlo.DefaultIterations,
			Sources:     cli.EnvVars("RISKFORGE_ITERATIONS"),
			Destination: &s.iterations,
		},
		&cli.IntFlag{
			Name:        "seed",
			Usage:       "Master RNG seed for a reproducible run (random when omitted)",
			Sources:     cli.EnvVars("RISKFORGE_SEED"),
			Destination: &s.seed,
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Maximum concurrent sampling workers (defaults to GOMAXPROCS)",
			Sources:     cli.EnvVars("RISKFORGE_WORKERS"),
			Destination: &s.workers,
		},
		&cli.BoolFlag{
			Name:        "correct-matrix",
			Usage:       "Repair a non-PSD correlation matrix instead of rejecting it",
			Sources:     cli.EnvVars("RISKFORGE_CORRECT_MATRIX"),
			Destination: &s.correctMatrix,
		},
		&cli.IntFlag{
			Name:        "top",
			Usage:       "Number of top risk contributors to report (0 for all)",
			Value:       10,
			Sources:     cli.EnvVars("RISKFORGE_TOP"),
			Destination: &s.top,
		},
	}
}

// Options maps the parsed flags to engine run options
func (s *Simulation) Options(c *cli.Command) ([]montecarlo.Option, error) {
	if s.seed < 0 {
		return nil, goerr.New("seed must be non-negative", goerr.V("seed", s.seed))
	}

	opts := []montecarlo.Option{
		montecarlo.WithIterations(s.iterations),
	}
	if c.IsSet("seed") {
		opts = append(opts, montecarlo.WithSeed(uint64(s.seed)))
	}
	if s.workers > 0 {
		opts = append(opts, montecarlo.WithWorkers(s.workers))
	}
	if s.correctMatrix {
		opts = append(opts, montecarlo.WithMatrixCorrection())
	}
	return opts, nil
}

// Top returns the configured contributor report depth
func (s *Simulation) Top() int {
	return s.top
}
