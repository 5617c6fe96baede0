package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

const (
	TradesFileName = "trades.parquet"
	EquityFileName = "equity.parquet"
	StatsFileName  = "stats.yaml"

	insertBatchSize = 500
)

// ResultFolder lays results out as strategy/config/[start_end]/data under root.
func ResultFolder(root string, strategyName string, configPath string, dataPath string, start optional.Option[time.Time], end optional.Option[time.Time]) string {
	strategyFolder := filepath.Join(root, strategyName)
	configFolder := filepath.Join(strategyFolder, baseName(configPath, "default"))

	dataFolder := configFolder

	if start.IsSome() || end.IsSome() {
		startStr := "all"
		endStr := "all"

		if start.IsSome() {
			startStr = start.Unwrap().Format("20060102")
		}

		if end.IsSome() {
			endStr = end.Unwrap().Format("20060102")
		}

		dataFolder = filepath.Join(configFolder, fmt.Sprintf("%s_%s", startStr, endStr))
	}

	return filepath.Join(dataFolder, baseName(dataPath, "data"))
}

func baseName(path string, fallback string) string {
	if path == "" {
		return fallback
	}

	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// ResultWriter persists a run: the trade ledger and equity curve as parquet
// through an in-memory DuckDB, and the stats document as YAML.
type ResultWriter struct {
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewResultWriter(log *logger.Logger) *ResultWriter {
	return &ResultWriter{
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Write stores result under dir and returns the stats document it wrote.
func (w *ResultWriter) Write(dir string, result types.BacktestResult, parameters map[string]any, dataPath string) (types.RunStats, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.RunStats{}, errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to create result folder %s", dir)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return types.RunStats{}, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to open duckdb", err)
	}
	defer db.Close()

	tradesPath := filepath.Join(dir, TradesFileName)
	if err := w.writeTrades(db, tradesPath, result.Trades); err != nil {
		return types.RunStats{}, err
	}

	equityPath := filepath.Join(dir, EquityFileName)
	if err := w.writeEquity(db, equityPath, result.EquityCurve); err != nil {
		return types.RunStats{}, err
	}

	stats := result.Stats(parameters)
	stats.TradesFilePath = tradesPath
	stats.EquityFilePath = equityPath
	stats.DataPath = dataPath
	stats.EngineVersion = version.GetVersion()

	statsPath := filepath.Join(dir, StatsFileName)
	if err := types.WriteRunStats(statsPath, []types.RunStats{stats}); err != nil {
		return types.RunStats{}, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write stats", err)
	}

	w.logger.Info("Results written",
		zap.String("dir", dir),
		zap.Int("trades", len(result.Trades)),
		zap.Int("bars", len(result.EquityCurve)),
	)

	return stats, nil
}

func (w *ResultWriter) writeTrades(db *sql.DB, path string, trades []types.TradeLeg) error {
	_, err := db.Exec(`
		CREATE TABLE trades (
			position_id TEXT,
			direction TEXT,
			entry_time TIMESTAMP,
			entry_price DOUBLE,
			entry_bar_index INTEGER,
			exit_time TIMESTAMP,
			exit_price DOUBLE,
			exit_bar_index INTEGER,
			quantity DOUBLE,
			reason TEXT,
			exit_type TEXT,
			commission DOUBLE,
			pnl DOUBLE,
			initial_stop DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create trades table", err)
	}

	for start := 0; start < len(trades); start += insertBatchSize {
		end := min(start+insertBatchSize, len(trades))

		insert := w.sq.Insert("trades").Columns(
			"position_id", "direction", "entry_time", "entry_price", "entry_bar_index",
			"exit_time", "exit_price", "exit_bar_index", "quantity", "reason",
			"exit_type", "commission", "pnl", "initial_stop",
		)

		for _, leg := range trades[start:end] {
			insert = insert.Values(
				leg.PositionID, string(leg.Direction), leg.EntryTime, leg.EntryPrice, leg.EntryBarIndex,
				leg.ExitTime, leg.ExitPrice, leg.ExitBarIndex, leg.Quantity, leg.Reason,
				string(leg.ExitType), leg.Commission, leg.PnL, leg.InitialStop,
			)
		}

		if _, err := insert.RunWith(db).Exec(); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to insert trades", err)
		}
	}

	return exportParquet(db, "SELECT * FROM trades ORDER BY exit_bar_index ASC", path)
}

func (w *ResultWriter) writeEquity(db *sql.DB, path string, curve []types.EquityPoint) error {
	_, err := db.Exec(`
		CREATE TABLE equity (
			time TIMESTAMP,
			equity DOUBLE,
			direction TEXT,
			position_size DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create equity table", err)
	}

	for start := 0; start < len(curve); start += insertBatchSize {
		end := min(start+insertBatchSize, len(curve))

		insert := w.sq.Insert("equity").Columns("time", "equity", "direction", "position_size")
		for _, point := range curve[start:end] {
			insert = insert.Values(point.Time, point.Equity, string(point.Direction), point.PositionSize)
		}

		if _, err := insert.RunWith(db).Exec(); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to insert equity points", err)
		}
	}

	return exportParquet(db, "SELECT * FROM equity ORDER BY time ASC", path)
}

func exportParquet(db *sql.DB, query string, path string) error {
	_, err := db.Exec(fmt.Sprintf("COPY (%s) TO '%s' (FORMAT PARQUET)", query, path))
	if err != nil {
		return errors.Wrapf(errors.ErrCodeResultWriteFailed, err, "failed to export %s", path)
	}

	return nil
}
