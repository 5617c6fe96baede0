package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *StatisticsTestSuite) TestBucketStatsAdd() {
	bucket := BucketStats{}
	bucket = bucket.Add(TradeLeg{PnL: 10})
	bucket = bucket.Add(TradeLeg{PnL: -5})
	bucket = bucket.Add(TradeLeg{PnL: 0})

	suite.Equal(3, bucket.Trades)
	suite.Equal(1, bucket.Wins)
	suite.Equal(1, bucket.Losses)
	suite.InDelta(1.0/3.0, bucket.WinRate, 1e-9)
	suite.Equal(5.0, bucket.PnL)
}

func (suite *StatisticsTestSuite) TestMetricsSentinels() {
	metrics := Metrics{
		TotalReturn:  0.1,
		ProfitFactor: optional.None[float64](),
		SharpeRatio:  optional.Some(1.5),
		TotalTrades:  4,
	}

	values := metrics.ToMap()
	suite.Nil(values["profit_factor"])
	suite.Equal(1.5, values["sharpe_ratio"])

	value, ok := metrics.Value("total_trades")
	suite.True(ok)
	suite.Equal(4.0, value)

	_, ok = metrics.Value("profit_factor")
	suite.False(ok)
	_, ok = metrics.Value("does_not_exist")
	suite.False(ok)
	_, ok = metrics.Value("session_stats")
	suite.False(ok)
}

func (suite *StatisticsTestSuite) TestWriteRunStats() {
	stats := []RunStats{
		{
			ID:             "run-1",
			Timestamp:      time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Strategy:       "sma_crossover",
			InitialCapital: 10000,
			FinalEquity:    10250,
			Metrics: Metrics{
				TotalReturn:  0.025,
				ProfitFactor: optional.None[float64](),
				SharpeRatio:  optional.Some(0.8),
				TotalTrades:  3,
			},
		},
	}

	filePath := filepath.Join(suite.tempDir, "stats.yaml")
	suite.Require().NoError(WriteRunStats(filePath, stats))

	data, err := os.ReadFile(filePath)
	suite.Require().NoError(err)

	var decoded []map[string]any
	suite.Require().NoError(yaml.Unmarshal(data, &decoded))
	suite.Len(decoded, 1)
	suite.Equal("sma_crossover", decoded[0]["strategy"])

	metrics, ok := decoded[0]["metrics"].(map[string]any)
	suite.Require().True(ok)
	suite.Nil(metrics["profit_factor"])
	suite.Equal(0.8, metrics["sharpe_ratio"])
	suite.Equal(3, metrics["total_trades"])
}

func (suite *StatisticsTestSuite) TestWriteRunStatsInvalidPath() {
	err := WriteRunStats(filepath.Join(suite.tempDir, "missing", "stats.yaml"), nil)
	suite.Error(err)
}
