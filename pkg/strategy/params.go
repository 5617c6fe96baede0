package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

var validate = validator.New()

// DecodeParams decodes raw parameters over defaults and validates the
// result. Numbers are converted weakly so YAML ints, optimizer floats and
// strings all land in the declared field type. Unknown keys are an error.
func DecodeParams[T any](raw map[string]any, defaults T) (T, error) {
	params := defaults

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &params,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return defaults, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to build parameter decoder", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return defaults, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to decode strategy parameters", err)
	}

	if err := validate.Struct(params); err != nil {
		return defaults, errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy parameters", err)
	}

	return params, nil
}
