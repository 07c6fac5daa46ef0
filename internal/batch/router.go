package batch

import "github.com/BatmanBruc/docx-quiz-bot/types"

// Decision lists the payment methods offered for a closed batch.
type Decision struct {
	Choices []types.PaymentMethod
	Balance int64
	Total   int64
	// Remainder is what the provider is asked for on the partial route.
	Remainder int64
}

// Route picks the offered payment methods. It depends only on its inputs.
func Route(balance, total, minExternal int64) Decision {
	d := Decision{Balance: balance, Total: total, Remainder: total}
	switch {
	case balance >= total:
		d.Remainder = 0
		d.Choices = []types.PaymentMethod{types.MethodBalance, types.MethodExternal}
	case balance > 0 && total-balance >= minExternal:
		d.Remainder = total - balance
		d.Choices = []types.PaymentMethod{types.MethodPartial, types.MethodExternal}
	default:
		d.Choices = []types.PaymentMethod{types.MethodExternal}
	}
	return d
}

// Menu reports whether the user has to pick a method.
func (d Decision) Menu() bool {
	return len(d.Choices) > 1
}

func (d Decision) Offers(m types.PaymentMethod) bool {
	for _, c := range d.Choices {
		if c == m {
			return true
		}
	}
	return false
}
