package batch

import (
	"testing"

	"github.com/BatmanBruc/docx-quiz-bot/types"
	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	const minExternal = 1000

	tests := []struct {
		name      string
		balance   int64
		total     int64
		choices   []types.PaymentMethod
		remainder int64
	}{
		{"zero balance", 0, 5000, []types.PaymentMethod{types.MethodExternal}, 5000},
		{"balance equals total", 5000, 5000, []types.PaymentMethod{types.MethodBalance, types.MethodExternal}, 0},
		{"balance above total", 9000, 5000, []types.PaymentMethod{types.MethodBalance, types.MethodExternal}, 0},
		{"one below total", 4999, 5000, []types.PaymentMethod{types.MethodExternal}, 5000},
		{"remainder at minimum", 4000, 5000, []types.PaymentMethod{types.MethodPartial, types.MethodExternal}, 1000},
		{"remainder one below minimum", 4001, 5000, []types.PaymentMethod{types.MethodExternal}, 5000},
		{"small balance", 1, 5000, []types.PaymentMethod{types.MethodPartial, types.MethodExternal}, 4999},
		{"total below minimum", 1, 900, []types.PaymentMethod{types.MethodExternal}, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Route(tt.balance, tt.total, minExternal)

			assert.Equal(t, tt.choices, d.Choices)
			assert.Equal(t, tt.remainder, d.Remainder)
			assert.Equal(t, len(tt.choices) > 1, d.Menu())
			assert.True(t, d.Offers(types.MethodExternal))
		})
	}
}

func TestRoute_IsPure(t *testing.T) {
	for balance := int64(0); balance <= 6000; balance += 250 {
		a := Route(balance, 5000, 1000)
		b := Route(balance, 5000, 1000)
		assert.Equal(t, a, b)
		if a.Offers(types.MethodPartial) {
			assert.Equal(t, int64(5000), a.Balance+a.Remainder)
		}
	}
}
