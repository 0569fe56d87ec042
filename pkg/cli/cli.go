package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/quantrail/riskforge/pkg/cli/config"
	"github.com/quantrail/riskforge/pkg/utils/errutil"
	"github.com/quantrail/riskforge/pkg/utils/logging"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var closer func()

	app := &cli.Command{
		Name:    "riskforge",
		Usage:   "Monte Carlo risk simulation for project cost and schedule outcomes",
		Version: version,
		Flags:   loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			logging.Default().Info("Starting riskforge", "logger", loggerCfg)
			return logging.With(ctx, logging.Default()), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdRun(),
			cmdValidate(),
			cmdFit(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		return errutil.Handle(ctx, err, "failed to run app")
	}

	return nil
}
