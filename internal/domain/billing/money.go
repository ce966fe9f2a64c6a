package billing

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places of the minor currency unit
const MoneyPlaces int32 = 2

// RoundMoney rounds an amount to the minor currency unit
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// SumMoney adds amounts and rounds the result to the minor currency unit
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return RoundMoney(total)
}
