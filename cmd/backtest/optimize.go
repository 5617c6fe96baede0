package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/optimizer"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Grid search a strategy's parameters and rank the combinations",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "Registered strategy name", Required: true},
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "Parquet or CSV bar file", Required: true},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Engine configuration YAML"},
			&cli.StringFlag{Name: "params", Aliases: []string{"p"}, Usage: "Strategy parameters YAML applied to every combination"},
			&cli.StringFlag{Name: "ranges", Aliases: []string{"r"}, Usage: "Parameter ranges YAML. Defaults to the strategy's own ranges"},
			&cli.StringFlag{Name: "metric", Aliases: []string{"m"}, Usage: "Metric to rank by", Value: optimizer.DefaultMetric},
			&cli.IntFlag{Name: "top", Usage: "Number of results to keep. 0 keeps all", Value: 10},
			&cli.IntFlag{Name: "parallelism", Usage: "Concurrent runs. 0 uses every CPU"},
			&cli.IntFlag{Name: "max-combinations", Usage: "Refuse grids larger than this. 0 is unbounded", Value: 100000},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write the ranked report to this YAML file"},
			&cli.BoolFlag{Name: "no-progress", Usage: "Hide the progress bar"},
		},
		Action: optimizeAction,
	}
}

func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	backtest, err := newEngine(cmd.String("config"), log)
	if err != nil {
		return err
	}

	bars, err := loadBars(cmd.String("data"), backtest, log)
	if err != nil {
		return err
	}

	params, err := loadParams(cmd.String("params"))
	if err != nil {
		return err
	}

	ranges, err := loadRanges(cmd.String("ranges"))
	if err != nil {
		return err
	}

	sweep := optimizer.NewOptimizer(backtest, strategy.DefaultRegistry(), log, optimizer.Config{
		Strategy:        cmd.String("strategy"),
		BaseParams:      params,
		Ranges:          ranges,
		Parallelism:     int(cmd.Int("parallelism")),
		MaxCombinations: int(cmd.Int("max-combinations")),
	})

	var onProgress optimizer.ProgressCallback

	if !cmd.Bool("no-progress") {
		var (
			mu  sync.Mutex
			bar *progressbar.ProgressBar
		)

		// workers report concurrently
		onProgress = func(_ int, total int) {
			mu.Lock()
			defer mu.Unlock()

			if bar == nil {
				bar = progressbar.NewOptions(total, progressbar.OptionSetDescription("Optimizing"), progressbar.OptionShowCount())
			}

			_ = bar.Add(1)
		}
	}

	report, err := sweep.Run(ctx, bars, cmd.String("metric"), int(cmd.Int("top")), onProgress)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		raw, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to marshal optimization report: %w", err)
		}

		if err := os.WriteFile(path, raw, 0644); err != nil {
			return fmt.Errorf("failed to write optimization report: %w", err)
		}
	}

	out := cmd.Root().Writer
	fmt.Fprintf(out, "\n%d combinations, %d failed, ranked by %s\n", report.Combinations, report.Failed, report.Metric)

	for i, result := range report.Results {
		score := "n/a"
		if result.Score.IsSome() {
			score = fmt.Sprintf("%.4f", result.Score.Unwrap())
		}

		fmt.Fprintf(out, "%3d. %-12s equity=%.2f trades=%d params=%v\n", i+1, score, result.FinalEquity, result.TotalTrades, result.Parameters)
	}

	return nil
}
