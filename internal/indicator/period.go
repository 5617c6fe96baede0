package indicator

import (
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// parsePeriod accepts the integer-ish values YAML and mapstructure produce.
func parsePeriod(params []any) (int, error) {
	if len(params) != 1 {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "Config expects 1 parameter: period (int)")
	}

	var period int

	switch v := params[0].(type) {
	case int:
		period = v
	case int64:
		period = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be a whole number, got %v", v)
		}

		period = int(v)
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid type %T for period parameter, expected int", params[0])
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be a positive integer, got %d", period)
	}

	return period, nil
}
