package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/quantrail/riskforge/pkg/domain/types"
	"github.com/quantrail/riskforge/pkg/service/distribution"
	"github.com/quantrail/riskforge/pkg/utils/logging"
	"github.com/quantrail/riskforge/pkg/utils/safe"
)

func cmdFit() *cli.Command {
	var inputPath string

	return &cli.Command{
		Name:  "fit",
		Usage: "Fit a distribution to historical impact observations (one value per line)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "Path to the observation file, or - for stdin",
				Value:       "-",
				Sources:     cli.EnvVars("RISKFORGE_FIT_INPUT"),
				Destination: &inputPath,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			samples, err := readSamples(inputPath)
			if err != nil {
				return err
			}

			d, err := distribution.New().FitHistorical(samples)
			if err != nil {
				return err
			}

			logging.From(ctx).Info("Fitted distribution to observations",
				"samples", len(samples), "type", d.Type)

			switch d.Type {
			case types.DistNormal:
				fmt.Printf("type=%s mean=%.4f std_dev=%.4f\n", d.Type, d.Mean, d.StdDev)
			case types.DistTriangular:
				fmt.Printf("type=%s min=%.4f mode=%.4f max=%.4f\n", d.Type, d.Min, d.Mode, d.Max)
			case types.DistUniform:
				fmt.Printf("type=%s min=%.4f max=%.4f\n", d.Type, d.Min, d.Max)
			case types.DistLogNormal:
				fmt.Printf("type=%s mu=%.4f sigma=%.4f\n", d.Type, d.Mu, d.Sigma)
			default:
				fmt.Printf("type=%s\n", d.Type)
			}
			return nil
		},
	}
}

func readSamples(path string) ([]float64, error) {
	var r *os.File
	if path == "-" {
		r = os.Stdin
	} else {
		// #nosec G304 - path is expected to be provided by CLI argument
		f, err := os.Open(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open input file", goerr.V("path", path))
		}
		defer safe.Close(context.Background(), f)
		r = f
	}

	var samples []float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid observation", goerr.V("line", line))
		}
		samples = append(samples, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read observations")
	}

	return samples, nil
}
