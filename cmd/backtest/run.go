package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/writer"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run one simulation and write its results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "Registered strategy name", Required: true},
			&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "Parquet or CSV bar file", Required: true},
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Engine configuration YAML"},
			&cli.StringFlag{Name: "params", Aliases: []string{"p"}, Usage: "Strategy parameters YAML"},
			&cli.StringFlag{Name: "results", Aliases: []string{"o"}, Usage: "Results root folder", Value: "results"},
			&cli.BoolFlag{Name: "no-progress", Usage: "Hide the progress bar"},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
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

	instance, err := strategy.DefaultRegistry().Create(cmd.String("strategy"), params)
	if err != nil {
		return err
	}

	callbacks := engine.LifecycleCallbacks{}

	if !cmd.Bool("no-progress") {
		var bar *progressbar.ProgressBar

		onStart := engine.OnRunStartCallback(func(_ string, name string, total int) error {
			bar = progressbar.NewOptions(total, progressbar.OptionSetDescription(fmt.Sprintf("Running %s", name)), progressbar.OptionShowCount())

			return nil
		})
		onProcess := engine.OnProcessDataCallback(func(current int, _ int) error {
			return bar.Set(current)
		})
		callbacks.OnRunStart = &onStart
		callbacks.OnProcessData = &onProcess
	}

	result, err := backtest.Run(ctx, bars, instance, callbacks)
	if err != nil {
		return err
	}

	config := backtest.Config()
	dir := writer.ResultFolder(cmd.String("results"), instance.Name(), cmd.String("config"), cmd.String("data"), config.StartTime, config.EndTime)

	if _, err := writer.NewResultWriter(log).Write(dir, result, params, cmd.String("data")); err != nil {
		return err
	}

	printSummary(cmd, result, dir)

	return nil
}

func printSummary(cmd *cli.Command, result types.BacktestResult, dir string) {
	metrics := result.Metrics.ToMap()
	out := cmd.Root().Writer

	fmt.Fprintf(out, "\nStrategy:       %s\n", result.Strategy)
	fmt.Fprintf(out, "Bars:           %d (%s to %s)\n", len(result.EquityCurve), result.StartTime.Format("2006-01-02 15:04"), result.EndTime.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Final equity:   %.2f\n", result.FinalEquity)
	fmt.Fprintf(out, "Net profit:     %.2f\n", result.Metrics.NetProfit)
	fmt.Fprintf(out, "Trades:         %d (win rate %.2f%%)\n", result.Metrics.TotalTrades, result.Metrics.WinRate*100)
	fmt.Fprintf(out, "Max drawdown:   %.2f%%\n", result.Metrics.MaxDrawdown*100)
	fmt.Fprintf(out, "Profit factor:  %s\n", formatOptional(metrics["profit_factor"]))
	fmt.Fprintf(out, "Sharpe ratio:   %s\n", formatOptional(metrics["sharpe_ratio"]))
	fmt.Fprintf(out, "Discarded:      %d, rejected: %d\n", len(result.Discarded), len(result.Rejected))
	fmt.Fprintf(out, "Results:        %s\n", dir)
}
