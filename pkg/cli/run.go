package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/quantrail/riskforge/pkg/cli/config"
	"github.com/quantrail/riskforge/pkg/repository/memory"
	"github.com/quantrail/riskforge/pkg/service/montecarlo"
	"github.com/quantrail/riskforge/pkg/usecase"
	"github.com/quantrail/riskforge/pkg/utils/logging"
)

func cmdRun() *cli.Command {
	var registerPath string
	var simCfg config.Simulation

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "register",
			Aliases:     []string{"f"},
			Usage:       "Path to the risk register TOML file",
			Required:    true,
			Sources:     cli.EnvVars("RISKFORGE_REGISTER"),
			Destination: &registerPath,
		},
	}
	flags = append(flags, simCfg.Flags()...)

	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Execute a simulation over the registered risks and report the outcome distribution",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			registerCfg, err := config.LoadRegister(registerPath)
			if err != nil {
				return err
			}
			register, err := registerCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to build risk register")
			}

			logger.Info("Risk register loaded",
				"path", registerPath,
				"project", registerCfg.Project.Name,
				"risks", len(registerCfg.Risks),
				"correlations", len(registerCfg.Correlations),
			)

			opts, err := simCfg.Options(c)
			if err != nil {
				return err
			}
			opts = append(opts, montecarlo.WithProgress(func(completed, total int) {
				logger.Debug("sampling progress", "completed", completed, "total", total)
			}))

			uc := usecase.New(memory.New(), register,
				usecase.WithCorrelationSource(register),
				usecase.WithBaselineProvider(register),
			)

			results, err := uc.Simulate(ctx, opts...)
			if err != nil {
				return goerr.Wrap(err, "simulation failed")
			}

			report, err := uc.Analyze(ctx, results, simCfg.Top())
			if err != nil {
				return goerr.Wrap(err, "analysis failed")
			}

			return printReport(os.Stdout, registerCfg.Project.Name, report)
		},
	}
}
