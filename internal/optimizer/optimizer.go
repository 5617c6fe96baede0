package optimizer

import (
	"context"
	"maps"
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	strategyruntime "github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/strategy"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMetric ranks combinations when none is given.
const DefaultMetric = "net_profit"

// metrics where a smaller value ranks higher.
var minimized = map[string]bool{
	"max_drawdown":        true,
	"max_drawdown_points": true,
	"consecutive_losses":  true,
	"losing_trades":       true,
	"total_commissions":   true,
}

type Config struct {
	Strategy string `yaml:"strategy" validate:"required"`
	// BaseParams are applied to every combination before the swept values.
	BaseParams map[string]any                            `yaml:"base_params"`
	Ranges     map[string]strategyruntime.ParameterRange `yaml:"ranges"`
	// Parallelism of 0 uses GOMAXPROCS.
	Parallelism int `yaml:"parallelism" validate:"gte=0"`
	// MaxCombinations of 0 means unbounded.
	MaxCombinations int `yaml:"max_combinations" validate:"gte=0"`
}

// Result is one evaluated combination.
type Result struct {
	RunID       string                   `yaml:"run_id" json:"run_id"`
	Parameters  map[string]any           `yaml:"parameters" json:"parameters"`
	Score       optional.Option[float64] `yaml:"-" json:"-"`
	FinalEquity float64                  `yaml:"final_equity" json:"final_equity"`
	TotalTrades int                      `yaml:"total_trades" json:"total_trades"`
	Metrics     types.Metrics            `yaml:"metrics" json:"metrics"`
}

// Report holds the ranked results of a sweep.
type Report struct {
	Strategy     string   `yaml:"strategy" json:"strategy"`
	Metric       string   `yaml:"metric" json:"metric"`
	Combinations int      `yaml:"combinations" json:"combinations"`
	Failed       int      `yaml:"failed" json:"failed"`
	Results      []Result `yaml:"results" json:"results"`
}

// ProgressCallback is invoked after every finished combination.
type ProgressCallback func(done int, total int)

// Optimizer sweeps a strategy's parameters over one bar sequence. The engine
// and the bars are shared by every worker; each combination gets its own
// strategy instance.
type Optimizer struct {
	engine   engine.Engine
	registry *strategy.Registry
	logger   *logger.Logger
	config   Config
}

func NewOptimizer(backtest engine.Engine, registry *strategy.Registry, log *logger.Logger, config Config) *Optimizer {
	return &Optimizer{
		engine:   backtest,
		registry: registry,
		logger:   log,
		config:   config,
	}
}

// ValidateMetric reports ErrCodeUnknownMetric for names that are not scalar metrics.
func ValidateMetric(metric string) error {
	value, ok := types.Metrics{}.ToMap()[metric]
	if !ok {
		return errors.Newf(errors.ErrCodeUnknownMetric, "unknown metric %q", metric)
	}

	switch value.(type) {
	case float64, int, nil:
		return nil
	default:
		return errors.Newf(errors.ErrCodeUnknownMetric, "metric %q is not a scalar", metric)
	}
}

func (o *Optimizer) ranges() (map[string]strategyruntime.ParameterRange, error) {
	if len(o.config.Ranges) > 0 {
		return o.config.Ranges, nil
	}

	ranges, err := o.registry.ParameterRanges(o.config.Strategy)
	if err != nil {
		return nil, err
	}

	if len(ranges) == 0 {
		return nil, errors.Newf(errors.ErrCodeOptimizerNoCombinations, "strategy %s publishes no parameter ranges", o.config.Strategy)
	}

	return ranges, nil
}

// Run evaluates every combination and returns the topN best by metric
// (all when topN <= 0). Combinations whose strategy fails to initialize or
// whose run fails are logged and counted. Run fails only when the context
// is cancelled or every combination failed.
func (o *Optimizer) Run(ctx context.Context, bars []types.Bar, metric string, topN int, onProgress ProgressCallback) (Report, error) {
	if metric == "" {
		metric = DefaultMetric
	}

	if err := ValidateMetric(metric); err != nil {
		return Report{}, err
	}

	if _, err := o.registry.New(o.config.Strategy); err != nil {
		return Report{}, err
	}

	ranges, err := o.ranges()
	if err != nil {
		return Report{}, err
	}

	total, err := CountCombinations(ranges)
	if err != nil {
		return Report{}, err
	}

	if o.config.MaxCombinations > 0 && total > o.config.MaxCombinations {
		return Report{}, errors.Newf(errors.ErrCodeInvalidParameterRange,
			"grid has %d combinations, above the limit of %d", total, o.config.MaxCombinations)
	}

	combinations, err := GenerateCombinations(ranges)
	if err != nil {
		return Report{}, err
	}

	parallelism := o.config.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	o.logger.Info("Starting optimization",
		zap.String("strategy", o.config.Strategy),
		zap.String("metric", metric),
		zap.Int("combinations", total),
		zap.Int("parallelism", parallelism),
	)

	var (
		// slots keep results in combination order whatever the finish order.
		slots  = make([]*Result, total)
		failed atomic.Int64
		done   atomic.Int64
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(parallelism)

	for i, combination := range combinations {
		if groupCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			result, err := o.evaluate(groupCtx, bars, combination, metric)

			finished := int(done.Add(1))
			if onProgress != nil {
				onProgress(finished, total)
			}

			if err != nil {
				if errors.HasCode(err, errors.ErrCodeBacktestCancelled) || groupCtx.Err() != nil {
					return err
				}

				failed.Add(1)
				o.logger.Warn("Combination failed", zap.Any("parameters", combination), zap.Error(err))

				return nil
			}

			slots[i] = &result

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return Report{}, errors.Wrap(errors.ErrCodeBacktestCancelled, "optimization cancelled", err)
	}

	if ctx.Err() != nil {
		return Report{}, errors.Wrap(errors.ErrCodeBacktestCancelled, "optimization cancelled", ctx.Err())
	}

	results := make([]Result, 0, total)
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}

	if len(results) == 0 {
		return Report{}, errors.Newf(errors.ErrCodeOptimizerAllFailed, "all %d combinations failed", total)
	}

	Rank(results, metric)

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}

	o.logger.Info("Optimization finished",
		zap.Int("combinations", total),
		zap.Int64("failed", failed.Load()),
	)

	return Report{
		Strategy:     o.config.Strategy,
		Metric:       metric,
		Combinations: total,
		Failed:       int(failed.Load()),
		Results:      results,
	}, nil
}

func (o *Optimizer) evaluate(ctx context.Context, bars []types.Bar, combination map[string]any, metric string) (Result, error) {
	params := make(map[string]any, len(o.config.BaseParams)+len(combination))
	maps.Copy(params, o.config.BaseParams)
	maps.Copy(params, combination)

	instance, err := o.registry.Create(o.config.Strategy, params)
	if err != nil {
		return Result{}, err
	}

	result, err := o.engine.Run(ctx, bars, instance, engine.LifecycleCallbacks{})
	if err != nil {
		return Result{}, err
	}

	score := optional.None[float64]()
	if value, ok := result.Metrics.Value(metric); ok {
		score = optional.Some(value)
	}

	return Result{
		RunID:       result.ID,
		Parameters:  combination,
		Score:       score,
		FinalEquity: result.FinalEquity,
		TotalTrades: result.Metrics.TotalTrades,
		Metrics:     result.Metrics,
	}, nil
}

// Rank sorts results best first. None scores always rank last.
func Rank(results []Result, metric string) {
	lowerIsBetter := minimized[metric]

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Score, results[j].Score

		if a.IsNone() || b.IsNone() {
			return a.IsSome() && b.IsNone()
		}

		if lowerIsBetter {
			return a.Unwrap() < b.Unwrap()
		}

		return a.Unwrap() > b.Unwrap()
	})
}
