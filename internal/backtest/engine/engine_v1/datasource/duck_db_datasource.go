package datasource

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBDataSource reads bars from a Parquet or CSV file through a DuckDB
// view named market_data.
type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType

	timeColumn    string
	hasVolume     bool
	signalColumns []string
}

// NewDataSource opens DuckDB at path (":memory:" for a private in-process
// database). Initialize attaches the market data file.
func NewDataSource(path string, logger *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reader = "read_parquet"
	case ".csv":
		reader = "read_csv_auto"
	default:
		return errors.Newf(errors.ErrCodeUnsupportedFileFormat, "unsupported market data file %s, expected .parquet or .csv", path)
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// squirrel has no CREATE VIEW support
	query := fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM %s('%s');`, reader, strings.ReplaceAll(path, "'", "''"))
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read %s", path)
	}

	return d.inspectColumns()
}

func (d *DuckDBDataSource) inspectColumns() error {
	query, args, err := d.sq.Select("column_name").
		From("information_schema.columns").
		Where(squirrel.Eq{"table_name": "market_data"}).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to build column query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe market data", err)
	}
	defer rows.Close()

	columns := make(map[string]struct{})

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan column name", err)
		}

		columns[strings.ToLower(name)] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe market data", err)
	}

	d.timeColumn = ""
	for _, candidate := range []string{"time", "timestamp"} {
		if _, ok := columns[candidate]; ok {
			d.timeColumn = candidate

			break
		}
	}

	if d.timeColumn == "" {
		return errors.New(errors.ErrCodeInvalidBar, "market data has no time or timestamp column")
	}

	for _, required := range []string{"open", "high", "low", "close"} {
		if _, ok := columns[required]; !ok {
			return errors.Newf(errors.ErrCodeInvalidBar, "market data is missing required column %s", required)
		}
	}

	_, d.hasVolume = columns["volume"]

	d.signalColumns = d.signalColumns[:0]
	for name := range columns {
		if strings.HasPrefix(name, SignalColumnPrefix) && len(name) > len(SignalColumnPrefix) {
			d.signalColumns = append(d.signalColumns, name)
		}
	}

	sort.Strings(d.signalColumns)

	return nil
}

func (d *DuckDBDataSource) applyRange(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{d.timeColumn: start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{d.timeColumn: end.Unwrap()})
	}

	return builder
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, args, err := d.applyRange(d.sq.Select("COUNT(*)").From("market_data"), start, end).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		columns := []string{d.timeColumn, "open", "high", "low", "close"}
		if d.hasVolume {
			columns = append(columns, "volume")
		}

		columns = append(columns, d.signalColumns...)

		query, args, err := d.applyRange(d.sq.Select(columns...).From("market_data"), start, end).
			OrderBy(d.timeColumn + " ASC").
			ToSql()
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build bar query", err))

			return
		}

		rows, err := d.db.Query(query, args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			bar, err := d.scanBar(rows)
			if !yield(bar, err) || err != nil {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err))
		}
	}
}

func (d *DuckDBDataSource) scanBar(rows *sql.Rows) (types.Bar, error) {
	var (
		bar     types.Bar
		volume  sql.NullFloat64
		signals = make([]sql.NullFloat64, len(d.signalColumns))
	)

	targets := []any{&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close}
	if d.hasVolume {
		targets = append(targets, &volume)
	}

	for i := range signals {
		targets = append(targets, &signals[i])
	}

	if err := rows.Scan(targets...); err != nil {
		return types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
	}

	bar.Volume = volume.Float64

	if len(signals) > 0 {
		bar.Signals = make(map[string]optional.Option[float64], len(signals))
		for i, column := range d.signalColumns {
			timeframe := strings.TrimPrefix(column, SignalColumnPrefix)
			if signals[i].Valid {
				bar.Signals[timeframe] = optional.Some(signals[i].Float64)
			} else {
				bar.Signals[timeframe] = optional.None[float64]()
			}
		}
	}

	return bar, nil
}

// SignalTimeframes implements DataSource.
func (d *DuckDBDataSource) SignalTimeframes() []string {
	timeframes := make([]string, len(d.signalColumns))
	for i, column := range d.signalColumns {
		timeframes[i] = strings.TrimPrefix(column, SignalColumnPrefix)
	}

	return timeframes
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
