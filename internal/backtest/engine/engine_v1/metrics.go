package engine

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
)

// CalculateMetrics derives the run summary from the ledger and the equity
// curve. Degenerate ratios come back as None. UniqueEntries is left to the
// caller, since positions still open at the end have no legs.
func CalculateMetrics(trades []types.TradeLeg, curve []types.EquityPoint, config BacktestEngineV1Config, calendar *SessionCalendar) types.Metrics {
	initial := config.InitialCapital
	finalEquity := initial

	if len(curve) > 0 {
		finalEquity = curve[len(curve)-1].Equity
	}

	metrics := types.Metrics{
		FinalEquity:     finalEquity,
		NetProfit:       finalEquity - initial,
		MaxDrawdown:     maxDrawdown(initial, curve),
		SharpeRatio:     sharpeRatio(initial, curve, config.Metrics),
		TotalTrades:     len(trades),
		ExitReasonStats: make(map[string]types.BucketStats),
		SessionStats:    make(map[string]types.BucketStats),
		HourlyStats:     make(map[int]types.BucketStats),
	}

	if initial != 0 {
		metrics.TotalReturn = (finalEquity - initial) / initial
	}

	metrics.ConsecutiveWins, metrics.ConsecutiveLosses = streaks(trades)
	metrics.ProfitFactor = profitFactor(trades)
	metrics.AvgRR = averageRewardToRisk(trades)
	metrics.RealizedPoints, metrics.MaxDrawdownPoints = pointsPath(trades, config.PointValue)

	var grossWin, grossLoss float64

	for _, trade := range trades {
		metrics.TotalCommissions += trade.Commission

		switch {
		case trade.IsWin():
			metrics.WinningTrades++
			grossWin += trade.PnL
			metrics.LargestWin = math.Max(metrics.LargestWin, trade.PnL)
		case trade.IsLoss():
			metrics.LosingTrades++
			grossLoss += trade.PnL
			metrics.LargestLoss = math.Min(metrics.LargestLoss, trade.PnL)
		default:
			metrics.BreakevenTrades++
		}

		metrics.ExitReasonStats[trade.Reason] = metrics.ExitReasonStats[trade.Reason].Add(trade)

		if session := calendar.SessionName(trade.EntryTime); session != "" {
			metrics.SessionStats[session] = metrics.SessionStats[session].Add(trade)
		}

		hour := calendar.Hour(trade.EntryTime)
		metrics.HourlyStats[hour] = metrics.HourlyStats[hour].Add(trade)
	}

	if metrics.TotalTrades > 0 {
		metrics.WinRate = float64(metrics.WinningTrades) / float64(metrics.TotalTrades)
	}

	if metrics.WinningTrades > 0 {
		metrics.AvgWin = grossWin / float64(metrics.WinningTrades)
	}

	if metrics.LosingTrades > 0 {
		metrics.AvgLoss = grossLoss / float64(metrics.LosingTrades)
	}

	return metrics
}

// maxDrawdown is a single running-maximum sweep seeded with initial capital.
func maxDrawdown(initial float64, curve []types.EquityPoint) float64 {
	peak := initial
	worst := 0.0

	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}

		if peak <= 0 {
			continue
		}

		if drawdown := (peak - point.Equity) / peak; drawdown > worst {
			worst = drawdown
		}
	}

	return worst
}

// streaks returns the longest runs of winning and losing legs in ledger
// order. A zero PnL leg ends both runs.
func streaks(trades []types.TradeLeg) (int, int) {
	var wins, losses, maxWins, maxLosses int

	for _, trade := range trades {
		switch {
		case trade.IsWin():
			wins++
			losses = 0
		case trade.IsLoss():
			losses++
			wins = 0
		default:
			wins, losses = 0, 0
		}

		maxWins = max(maxWins, wins)
		maxLosses = max(maxLosses, losses)
	}

	return maxWins, maxLosses
}

func profitFactor(trades []types.TradeLeg) optional.Option[float64] {
	var gains, losses float64

	for _, trade := range trades {
		if trade.IsWin() {
			gains += trade.PnL
		} else if trade.IsLoss() {
			losses += -trade.PnL
		}
	}

	if losses == 0 {
		return optional.None[float64]()
	}

	return optional.Some(gains / losses)
}

// periodReturns are the bar-to-bar equity returns, the first measured
// against initial capital.
func periodReturns(initial float64, curve []types.EquityPoint) []float64 {
	returns := make([]float64, 0, len(curve))
	previous := initial

	for _, point := range curve {
		if previous != 0 {
			returns = append(returns, (point.Equity-previous)/previous)
		} else {
			returns = append(returns, 0)
		}

		previous = point.Equity
	}

	return returns
}

func sharpeRatio(initial float64, curve []types.EquityPoint, config MetricsConfig) optional.Option[float64] {
	returns := periodReturns(initial, curve)
	n := len(returns)

	if n < 2 {
		return optional.None[float64]()
	}

	var sum float64
	for _, r := range returns {
		sum += r - config.RiskFreeRate
	}

	mean := sum / float64(n)

	var squares float64
	for _, r := range returns {
		diff := r - config.RiskFreeRate - mean
		squares += diff * diff
	}

	denominator := float64(n)
	if config.SampleStdDev {
		denominator = float64(n - 1)
	}

	std := math.Sqrt(squares / denominator)
	if std == 0 || math.IsNaN(std) {
		return optional.None[float64]()
	}

	sharpe := mean / std
	if config.PeriodsPerYear > 0 {
		sharpe *= math.Sqrt(config.PeriodsPerYear)
	}

	return optional.Some(sharpe)
}

// averageRewardToRisk averages realized points over initial stop distance
// for legs that opened with a stop.
func averageRewardToRisk(trades []types.TradeLeg) optional.Option[float64] {
	var total float64

	count := 0

	for _, trade := range trades {
		risk := math.Abs(trade.EntryPrice - trade.InitialStop)
		if trade.InitialStop == 0 || risk == 0 {
			continue
		}

		reward := (trade.ExitPrice - trade.EntryPrice) * trade.Direction.Sign()
		total += reward / risk
		count++
	}

	if count == 0 {
		return optional.None[float64]()
	}

	return optional.Some(total / float64(count))
}

// pointsPath returns cumulative net points per unit and the largest
// drawdown of that running total.
func pointsPath(trades []types.TradeLeg, pointValue float64) (float64, float64) {
	var realized, peak, worst float64

	for _, trade := range trades {
		denominator := pointValue * trade.Quantity
		if denominator == 0 {
			continue
		}

		realized += trade.PnL / denominator
		peak = math.Max(peak, realized)
		worst = math.Max(worst, peak-realized)
	}

	return realized, worst
}
