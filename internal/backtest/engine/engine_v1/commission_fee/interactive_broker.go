package commission_fee

// InteractiveBrokerCommissionFee follows the tiered per-share schedule with a
// one dollar minimum per order.
type InteractiveBrokerCommissionFee struct {
}

func NewInteractiveBrokerCommissionFee() CommissionFee {
	return &InteractiveBrokerCommissionFee{}
}

func (c *InteractiveBrokerCommissionFee) Calculate(quantity float64, _ float64) float64 {
	if quantity <= 0 {
		return 0
	}

	fee := 0.005 * quantity
	if fee < 1.0 {
		return 1.0
	}

	return fee
}
