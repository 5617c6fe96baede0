package commission_fee

import "math"

// CommissionFee prices a single fill. Quantity is the filled quantity and
// price is the slipped fill price; the result is in account currency.
type CommissionFee interface {
	Calculate(quantity float64, price float64) float64
}

type Model string

const (
	ModelZero              Model = "zero"
	ModelFixedPerUnit      Model = "fixed_per_unit"
	ModelFixedPerFill      Model = "fixed_per_fill"
	ModelPercentage        Model = "percentage"
	ModelInteractiveBroker Model = "interactive_broker"
)

var AllModels = []any{
	ModelZero,
	ModelFixedPerUnit,
	ModelFixedPerFill,
	ModelPercentage,
	ModelInteractiveBroker,
}

// GetCommissionFeeHandler returns the handler for model. value is the model's
// rate: currency per unit, currency per fill, or percent of notional.
// pointValue converts a price into notional for the percentage model.
func GetCommissionFeeHandler(model Model, value float64, pointValue float64) CommissionFee {
	switch model {
	case ModelFixedPerUnit:
		return NewFixedPerUnitCommissionFee(value)
	case ModelFixedPerFill:
		return NewFixedPerFillCommissionFee(value)
	case ModelPercentage:
		return NewPercentageCommissionFee(value, pointValue)
	case ModelInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case ModelZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}

// FixedPerUnitCommissionFee charges a flat amount per contract or share.
type FixedPerUnitCommissionFee struct {
	perUnit float64
}

func NewFixedPerUnitCommissionFee(perUnit float64) CommissionFee {
	return &FixedPerUnitCommissionFee{perUnit: perUnit}
}

func (c *FixedPerUnitCommissionFee) Calculate(quantity float64, _ float64) float64 {
	if quantity <= 0 {
		return 0
	}

	return c.perUnit * quantity
}

// FixedPerFillCommissionFee charges the same amount for every fill.
type FixedPerFillCommissionFee struct {
	perFill float64
}

func NewFixedPerFillCommissionFee(perFill float64) CommissionFee {
	return &FixedPerFillCommissionFee{perFill: perFill}
}

func (c *FixedPerFillCommissionFee) Calculate(quantity float64, _ float64) float64 {
	if quantity <= 0 {
		return 0
	}

	return c.perFill
}

// PercentageCommissionFee charges a percentage of the fill notional.
type PercentageCommissionFee struct {
	percent    float64
	pointValue float64
}

func NewPercentageCommissionFee(percent float64, pointValue float64) CommissionFee {
	if pointValue <= 0 {
		pointValue = 1
	}

	return &PercentageCommissionFee{percent: percent, pointValue: pointValue}
}

func (c *PercentageCommissionFee) Calculate(quantity float64, price float64) float64 {
	if quantity <= 0 {
		return 0
	}

	return math.Abs(quantity*price*c.pointValue) * c.percent / 100
}
