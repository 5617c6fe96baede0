package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type BacktestEngineV1 struct {
	config      BacktestEngineV1Config
	log         *logger.Logger
	calendar    *SessionCalendar
	initialized bool
}

func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config: EmptyConfig(),
	}
}

// NewBacktestEngineV1WithLogger uses log instead of building a production logger.
func NewBacktestEngineV1WithLogger(log *logger.Logger) engine.Engine {
	return &BacktestEngineV1{
		config: EmptyConfig(),
		log:    log,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed := EmptyConfig()
	if err := yaml.Unmarshal([]byte(config), &parsed); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine configuration", err)
	}

	return b.InitializeWithConfig(parsed)
}

// InitializeWithConfig validates and applies an already decoded configuration.
func (b *BacktestEngineV1) InitializeWithConfig(config BacktestEngineV1Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	calendar, err := NewSessionCalendar(config.Session)
	if err != nil {
		return err
	}

	if b.log == nil {
		b.log, err = logger.NewLogger()
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
	}

	b.config = config
	b.calendar = calendar
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.Float64("initial_capital", config.InitialCapital),
		zap.String("commission", string(config.Commission.Type)),
		zap.String("timezone", config.Session.Timezone),
	)

	return nil
}

// Config returns the active configuration.
func (b *BacktestEngineV1) Config() BacktestEngineV1Config {
	return b.config
}

// Run implements engine.Engine. It performs one strictly sequential pass:
// fill due intents at the open, evaluate exits against the bar, call the
// strategy with the visible window, then record one equity point.
func (b *BacktestEngineV1) Run(ctx context.Context, bars []types.Bar, strategy runtime.Strategy, callbacks engine.LifecycleCallbacks) (types.BacktestResult, error) {
	if err := b.preRunCheck(strategy); err != nil {
		return types.BacktestResult{}, err
	}

	if err := types.ValidateBars(bars); err != nil {
		return types.BacktestResult{}, err
	}

	window := filterBars(bars, b.config.StartTime, b.config.EndTime)
	if len(window) == 0 {
		return types.BacktestResult{}, errors.New(errors.ErrCodeNoDataFound, "no bars inside the configured time range")
	}

	calendar := b.calendar
	if b.config.Session.DetectEarlyClose {
		cutoff, err := parseClock(b.config.Session.EarlyCloseCutoff)
		if err != nil {
			return types.BacktestResult{}, err
		}

		calendar = calendar.WithDetectedEarlyCloses(window, cutoff)
	}

	runID := uuid.New().String()
	runLog := &logger.Logger{Logger: b.log.With(zap.String("run_id", runID), zap.String("strategy", strategy.Name()))}

	state := NewBacktestState(runLog, b.config.PointValue)
	commission := commission_fee.GetCommissionFeeHandler(b.config.Commission.Type, b.config.Commission.Value, b.config.PointValue)
	trading := NewBacktestTrading(runLog, state, commission, calendar, b.config)

	if callbacks.OnIntentRejected != nil {
		trading.onRejected = *callbacks.OnIntentRejected
	}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, strategy.Name(), len(window)); err != nil {
			return types.BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "run start callback failed", err)
		}
	}

	runLog.Info("Backtest run started", zap.Int("bars", len(window)))

	equityCurve := make([]types.EquityPoint, 0, len(window))

	for i, bar := range window {
		if err := ctx.Err(); err != nil {
			runLog.Warn("Backtest run cancelled", zap.Int("bar_index", i))

			return types.BacktestResult{}, errors.Wrap(errors.ErrCodeBacktestCancelled, "backtest run cancelled", err)
		}

		trading.SetCurrentBar(i, bar)

		if err := trading.ExecuteDue(i, bar); err != nil {
			return types.BacktestResult{}, errors.Wrapf(errors.ErrCodeStateInvariant, err, "failed to execute intents at bar %d", i)
		}

		forceClose := optional.None[string]()
		if reason, ok := calendar.ForceCloseReason(bar.Time); ok {
			forceClose = optional.Some(reason)
		}

		trading.QueueExits(state.EvaluateExits(bar, b.config.Exits, forceClose))

		visible := visibleSlice(window, i, b.config.MaxBarsBack)
		if err := strategy.OnBar(newBarContext(visible, i, trading)); err != nil {
			runLog.Error("Strategy failed", zap.Int("bar_index", i), zap.Error(err))

			return types.BacktestResult{}, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err, "strategy %s failed at bar %d", strategy.Name(), i)
		}

		equityCurve = append(equityCurve, types.EquityPoint{
			Time:         bar.Time,
			Equity:       b.config.InitialCapital + state.RealizedPnL(),
			Direction:    state.Direction(),
			PositionSize: state.Quantity(),
		})

		if callbacks.OnProcessData != nil {
			if err := (*callbacks.OnProcessData)(i+1, len(window)); err != nil {
				return types.BacktestResult{}, errors.Wrap(errors.ErrCodeCallbackFailed, "process data callback failed", err)
			}
		}
	}

	trading.DiscardPending(types.DiscardReasonNoNextBar)

	ledger := state.Ledger()
	metrics := CalculateMetrics(ledger, equityCurve, b.config, calendar)
	metrics.UniqueEntries = state.UniqueEntries()

	result := types.BacktestResult{
		ID:             runID,
		Strategy:       strategy.Name(),
		StartTime:      window[0].Time,
		EndTime:        window[len(window)-1].Time,
		InitialCapital: b.config.InitialCapital,
		FinalEquity:    metrics.FinalEquity,
		EquityCurve:    equityCurve,
		Trades:         ledger,
		Fills:          trading.Fills(),
		Discarded:      trading.Discarded(),
		Rejected:       trading.Rejected(),
		Metrics:        metrics,
	}

	runLog.Info("Backtest run finished",
		zap.Int("trades", len(ledger)),
		zap.Int("discarded", len(result.Discarded)),
		zap.Int("rejected", len(result.Rejected)),
		zap.Float64("final_equity", result.FinalEquity),
	)

	if callbacks.OnRunEnd != nil {
		(*callbacks.OnRunEnd)(runID, result)
	}

	return result, nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

func (b *BacktestEngineV1) preRunCheck(strategy runtime.Strategy) error {
	if !b.initialized {
		return errors.New(errors.ErrCodeBacktestNotInitialized, "engine is not initialized")
	}

	if strategy == nil {
		b.log.Error("No strategy provided")

		return errors.New(errors.ErrCodeBacktestNoStrategy, "no strategy provided")
	}

	return nil
}
