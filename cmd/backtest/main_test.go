package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/backtest/writer"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/mocks"
	"github.com/stretchr/testify/suite"
)

type CLITestSuite struct {
	suite.Suite
	dir      string
	dataPath string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (suite *CLITestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	config := mocks.DefaultConfig()
	config.Count = 300
	config.Volatility = 0.002
	config.StartTime = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := mocks.NewBarGenerator(11).Generate(config)

	var csv strings.Builder
	csv.WriteString("time,open,high,low,close,volume\n")

	for _, bar := range bars {
		fmt.Fprintf(&csv, "%s,%.2f,%.2f,%.2f,%.2f,%.0f\n", bar.Time.Format("2006-01-02 15:04:05"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	suite.dataPath = suite.writeFile("es_1m.csv", csv.String())
}

func (suite *CLITestSuite) writeFile(name string, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *CLITestSuite) run(args ...string) string {
	var out bytes.Buffer

	app := newApp()
	app.Writer = &out

	suite.Require().NoError(app.Run(context.Background(), append([]string{"backtest"}, args...)))

	return out.String()
}

func (suite *CLITestSuite) TestRunWritesResults() {
	config := suite.writeFile("utc.yaml", "initial_capital: 50000\nsession:\n  timezone: UTC\n  force_close_time: \"\"\n  halt_start: \"\"\n  halt_end: \"\"\n")
	params := suite.writeFile("params.yaml", "period: 10\nquantity: 2\n")
	results := filepath.Join(suite.dir, "results")

	out := suite.run("run", "--strategy", "sma_crossover", "--data", suite.dataPath,
		"--config", config, "--params", params, "--results", results, "--no-progress")

	dir := filepath.Join(results, "sma_crossover", "utc", "es_1m")
	suite.Contains(out, "Strategy:       sma_crossover")
	suite.Contains(out, dir)
	suite.FileExists(filepath.Join(dir, writer.StatsFileName))
	suite.FileExists(filepath.Join(dir, writer.TradesFileName))
	suite.FileExists(filepath.Join(dir, writer.EquityFileName))
}

func (suite *CLITestSuite) TestOptimizeWritesReport() {
	ranges := suite.writeFile("ranges.yaml", "period:\n  min: 5\n  max: 15\n  step: 5\n")
	report := filepath.Join(suite.dir, "report.yaml")

	out := suite.run("optimize", "--strategy", "sma_crossover", "--data", suite.dataPath,
		"--ranges", ranges, "--top", "2", "--output", report, "--no-progress")

	suite.Contains(out, "3 combinations, 0 failed, ranked by net_profit")
	suite.FileExists(report)
}

func (suite *CLITestSuite) TestSchemaAndStrategies() {
	suite.Contains(suite.run("schema"), "backtest-engine-v1-config")
	suite.Contains(suite.run("schema", "--strategy", "score_cross"), "atr_length")

	out := suite.run("strategies")
	suite.Contains(out, "score_cross")
	suite.Contains(out, "sma_crossover (1 optimizable parameters)")
}

func (suite *CLITestSuite) TestLoadHelpers() {
	params, err := loadParams("")
	suite.Require().NoError(err)
	suite.Empty(params)

	ranges, err := loadRanges(suite.writeFile("r.yaml", "atr_length:\n  min: 10\n  max: 20\n  step: 5\n"))
	suite.Require().NoError(err)
	suite.Equal(map[string]runtime.ParameterRange{"atr_length": {Min: 10, Max: 20, Step: 5}}, ranges)

	_, err = loadParams(filepath.Join(suite.dir, "missing.yaml"))
	suite.Error(err)
}

func (suite *CLITestSuite) TestSchemaOutputWritesLoadableSample() {
	dir := filepath.Join(suite.dir, "config")
	suite.run("schema", "--output", dir)

	suite.FileExists(filepath.Join(dir, schemaFileName))

	sample := filepath.Join(dir, sampleConfigFileName)
	raw, err := os.ReadFile(sample)
	suite.Require().NoError(err)
	suite.True(strings.HasPrefix(string(raw), "# yaml-language-server: $schema="+schemaFileName))

	log, err := newLogger(newApp())
	suite.Require().NoError(err)

	backtest, err := newEngine(sample, log)
	suite.Require().NoError(err)
	suite.Equal(100000.0, backtest.Config().InitialCapital)
}
