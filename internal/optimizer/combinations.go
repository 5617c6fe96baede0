package optimizer

import (
	"math"
	"sort"

	"github.com/rxtech-lab/argo-backtest/internal/runtime"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// maxGridSize bounds a single axis and the full product.
const maxGridSize = math.MaxInt32

// Values expands an inclusive range. Integral ranges yield ints so that
// integer strategy parameters decode without coercion.
func Values(r runtime.ParameterRange) ([]any, error) {
	count, err := axisCount(r)
	if err != nil {
		return nil, err
	}

	integral := isWhole(r.Min) && isWhole(r.Step)
	values := make([]any, 0, count)

	for i := range count {
		value := r.Min + float64(i)*r.Step
		if integral {
			values = append(values, int(math.Round(value)))
		} else {
			values = append(values, math.Round(value*1e9)/1e9)
		}
	}

	return values, nil
}

// axisCount is the number of values r expands to, computed without
// materializing them.
func axisCount(r runtime.ParameterRange) (int, error) {
	if !isFinite(r.Min) || !isFinite(r.Max) {
		return 0, errors.Newf(errors.ErrCodeInvalidParameterRange, "bounds must be finite, got [%v, %v]", r.Min, r.Max)
	}

	if r.Step <= 0 || !isFinite(r.Step) {
		return 0, errors.Newf(errors.ErrCodeInvalidParameterRange, "step must be positive, got %v", r.Step)
	}

	if r.Max < r.Min {
		return 0, errors.Newf(errors.ErrCodeInvalidParameterRange, "max %v is below min %v", r.Max, r.Min)
	}

	steps := math.Floor((r.Max-r.Min)/r.Step + 1e-9)
	if !isFinite(steps) || steps+1 > maxGridSize {
		return 0, errors.Newf(errors.ErrCodeInvalidParameterRange,
			"range [%v, %v] step %v expands past %d values", r.Min, r.Max, r.Step, maxGridSize)
	}

	return int(steps) + 1, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isWhole(v float64) bool {
	return v == math.Trunc(v)
}

// GenerateCombinations returns the cartesian product of ranges. Names are
// iterated in sorted order with the last name varying fastest, so the
// output order is stable.
func GenerateCombinations(ranges map[string]runtime.ParameterRange) ([]map[string]any, error) {
	if len(ranges) == 0 {
		return nil, errors.New(errors.ErrCodeOptimizerNoCombinations, "no parameter ranges to optimize")
	}

	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}

	sort.Strings(names)

	axes := make([][]any, len(names))

	for i, name := range names {
		values, err := Values(ranges[name])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidParameterRange, err, "invalid range for %s", name)
		}

		axes[i] = values
	}

	combinations := []map[string]any{{}}

	for i, name := range names {
		next := make([]map[string]any, 0, len(combinations)*len(axes[i]))

		for _, base := range combinations {
			for _, value := range axes[i] {
				combination := make(map[string]any, len(base)+1)
				for k, v := range base {
					combination[k] = v
				}

				combination[name] = value
				next = append(next, combination)
			}
		}

		combinations = next
	}

	return combinations, nil
}

// CountCombinations returns the grid size without building it.
func CountCombinations(ranges map[string]runtime.ParameterRange) (int, error) {
	if len(ranges) == 0 {
		return 0, errors.New(errors.ErrCodeOptimizerNoCombinations, "no parameter ranges to optimize")
	}

	total := 1

	for name, r := range ranges {
		count, err := axisCount(r)
		if err != nil {
			return 0, errors.Wrapf(errors.ErrCodeInvalidParameterRange, err, "invalid range for %s", name)
		}

		if total > maxGridSize/count {
			return 0, errors.Newf(errors.ErrCodeInvalidParameterRange,
				"parameter grid exceeds %d combinations", maxGridSize)
		}

		total *= count
	}

	return total, nil
}
