package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/quantrail/riskforge/pkg/cli/config"
	"github.com/quantrail/riskforge/pkg/repository/memory"
	"github.com/quantrail/riskforge/pkg/usecase"
	"github.com/quantrail/riskforge/pkg/utils/logging"
)

func cmdValidate() *cli.Command {
	var registerPath string

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a risk register file and check simulation parameters",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "register",
				Aliases:     []string{"f"},
				Usage:       "Path to the risk register TOML file",
				Required:    true,
				Sources:     cli.EnvVars("RISKFORGE_REGISTER"),
				Destination: &registerPath,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			registerCfg, err := config.LoadRegister(registerPath)
			if err != nil {
				return goerr.Wrap(err, "register validation failed")
			}

			logger.Info("Register file is valid",
				"path", registerPath,
				"project", registerCfg.Project.Name,
				"risks", len(registerCfg.Risks),
				"correlations", len(registerCfg.Correlations),
			)

			register, err := registerCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to build risk register")
			}

			uc := usecase.New(memory.New(), register,
				usecase.WithCorrelationSource(register),
			)
			result, err := uc.CheckParameters(ctx)
			if err != nil {
				return err
			}

			if result.HasIssues() {
				for _, issue := range result.Issues {
					logger.Error("Parameter issue", "risk_id", issue.RiskID, "message", issue.Message)
				}
				return goerr.New("simulation parameters are invalid",
					goerr.V("issues", len(result.Issues)))
			}

			logger.Info("Simulation parameters are valid")
			return nil
		},
	}
}
