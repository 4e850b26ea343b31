package service

import "github.com/smallbiznis/maktab/pkg/money"

// splitProportional distributes total across targets in the given order.
// Every target but the last receives its pro-rata share rounded to 2
// decimals; the last receives exactly what is left so the sum reconciles
// to the cent. No share exceeds its target's balance or the amount still
// unallocated, so the caller's ordering decides who absorbs the rounding
// remainder.
func splitProportional(total float64, balances []float64) []float64 {
	allocations := make([]float64, len(balances))

	totalBalance := 0.0
	for _, balance := range balances {
		totalBalance += balance
	}
	if totalBalance <= 0 || total <= 0 {
		return allocations
	}

	remaining := money.Round2(total)
	for i, balance := range balances {
		var share float64
		if i == len(balances)-1 {
			share = remaining
		} else {
			share = money.Round2(total * balance / totalBalance)
		}
		if share > balance {
			share = balance
		}
		if share > remaining {
			share = remaining
		}
		if share < 0 {
			share = 0
		}
		share = money.Round2(share)

		allocations[i] = share
		remaining = money.Round2(remaining - share)
	}

	return allocations
}
