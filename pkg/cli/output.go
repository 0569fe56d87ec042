package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"gonum.org/v1/gonum/stat"

	"github.com/quantrail/riskforge/pkg/domain/model"
	"github.com/quantrail/riskforge/pkg/usecase"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	warnColor   = color.New(color.FgYellow)
)

// printReport renders the standard simulation report as text tables
func printReport(w io.Writer, project string, report *usecase.Report) error {
	res := report.Results

	title := "Simulation report"
	if project != "" {
		title = fmt.Sprintf("Simulation report: %s", project)
	}
	if _, err := headerColor.Fprintln(w, title); err != nil {
		return err
	}

	fmt.Fprintf(w, "iterations=%d seed=%d duration=%s risks=%d\n",
		res.Iterations, res.Seed, res.Duration.Round(time.Millisecond), len(res.RiskIDs))
	if !res.Converged {
		warnColor.Fprintln(w, "warning: run did not converge, consider more iterations")
	}
	if res.CorrelationCorrected {
		warnColor.Fprintln(w, "warning: correlation matrix was repaired to nearest PSD")
	}
	fmt.Fprintln(w)

	headerColor.Fprintln(w, "Outcomes")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "axis\tmean\tstd dev")
	fmt.Fprintf(tw, "cost\t%.2f\t%.2f\n", stat.Mean(res.Cost, nil), stat.StdDev(res.Cost, nil))
	fmt.Fprintf(tw, "schedule\t%.2f\t%.2f\n", stat.Mean(res.Schedule, nil), stat.StdDev(res.Schedule, nil))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	headerColor.Fprintln(w, "Percentiles")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "level\tcost\tschedule")
	for _, p := range sortedLevels(report.Percentiles.Cost) {
		fmt.Fprintf(tw, "P%d\t%.2f\t%.2f\n", p, report.Percentiles.Cost[p], report.Percentiles.Schedule[p])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)

	headerColor.Fprintln(w, "Confidence intervals")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "level\tcost\tschedule")
	for _, l := range sortedFloatLevels(report.Intervals.Cost) {
		c := report.Intervals.Cost[l]
		s := report.Intervals.Schedule[l]
		fmt.Fprintf(tw, "%.0f%%\t[%.2f, %.2f]\t[%.2f, %.2f]\n", l*100, c.Lower, c.Upper, s.Lower, s.Upper)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Contributors.Cost) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Top cost contributors")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "rank\trisk\tshare\tcorrelation")
		for _, c := range report.Contributors.Cost {
			fmt.Fprintf(tw, "%d\t%s\t%.1f%%\t%.3f\n", c.Rank, c.RiskID, c.Share*100, c.Correlation)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(report.Contributors.Schedule) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Top schedule contributors")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "rank\trisk\tshare\tcorrelation")
		for _, c := range report.Contributors.Schedule {
			fmt.Fprintf(tw, "%d\t%s\t%.1f%%\t%.3f\n", c.Rank, c.RiskID, c.Share*100, c.Correlation)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	return nil
}

func sortedLevels(m map[int]float64) []int {
	levels := make([]int, 0, len(m))
	for p := range m {
		levels = append(levels, p)
	}
	sort.Ints(levels)
	return levels
}

func sortedFloatLevels(m map[float64]model.ConfidenceInterval) []float64 {
	levels := make([]float64, 0, len(m))
	for l := range m {
		levels = append(levels, l)
	}
	sort.Float64s(levels)
	return levels
}
