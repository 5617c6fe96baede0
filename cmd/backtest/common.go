package main

import (
	"fmt"
	"os"

	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	if cmd.Bool("verbose") {
		return logger.NewLoggerWithOptions(logger.Options{Level: zapcore.DebugLevel, Development: true, OutputPaths: []string{"stderr"}})
	}

	return logger.NewLoggerWithOptions(logger.Options{Level: zapcore.WarnLevel, OutputPaths: []string{"stderr"}})
}

// newEngine builds an engine from the YAML file at path, or the defaults
// when path is empty.
func newEngine(path string, log *logger.Logger) (*engine.BacktestEngineV1, error) {
	backtest, ok := engine.NewBacktestEngineV1WithLogger(log).(*engine.BacktestEngineV1)
	if !ok {
		return nil, fmt.Errorf("unexpected engine implementation")
	}

	if path == "" {
		return backtest, backtest.InitializeWithConfig(engine.EmptyConfig())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine config: %w", err)
	}

	if err := backtest.Initialize(string(raw)); err != nil {
		return nil, err
	}

	return backtest, nil
}

// loadBars reads the data file inside the engine's configured window.
func loadBars(path string, backtest *engine.BacktestEngineV1, log *logger.Logger) ([]types.Bar, error) {
	source, err := datasource.NewDataSource(":memory:", log)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	if err := source.Initialize(path); err != nil {
		return nil, err
	}

	config := backtest.Config()

	return datasource.LoadBars(source, config.StartTime, config.EndTime)
}

func loadParams(path string) (map[string]any, error) {
	params := map[string]any{}
	if path == "" {
		return params, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy params: %w", err)
	}

	if err := yaml.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("failed to parse strategy params: %w", err)
	}

	return params, nil
}

func loadRanges(path string) (map[string]runtime.ParameterRange, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter ranges: %w", err)
	}

	var ranges map[string]runtime.ParameterRange
	if err := yaml.Unmarshal(raw, &ranges); err != nil {
		return nil, fmt.Errorf("failed to parse parameter ranges: %w", err)
	}

	return ranges, nil
}

func formatOptional(value any) string {
	if value == nil {
		return "n/a"
	}

	return fmt.Sprintf("%.4f", value)
}
