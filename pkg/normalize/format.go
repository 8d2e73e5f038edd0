package normalize

import (
	"github.com/shopspring/decimal"
)

// Unit suffixes.
const (
	unitKW  = "KW"
	unitKWh = "kWh"
	unitMWh = "MWh"
	unitKg  = "Kg"
	unitKm  = "km"
)

// fixed formats d with the given number of decimals, rounding half away from
// zero.
func fixed(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

// kilowatts converts watts to "X.XXKW".
func kilowatts(watts decimal.Decimal) string {
	return fixed(watts.Shift(-3), 2) + unitKW
}

// kilowattHours formats energy already in kWh.
func kilowattHours(kwh decimal.Decimal) string {
	return fixed(kwh, 2) + unitKWh
}

// megawattHours converts kWh to "X.XXMWh".
func megawattHours(kwh decimal.Decimal) string {
	return fixed(kwh.Shift(-3), 2) + unitMWh
}

// money multiplies energy by a per-kWh rate and prefixes the currency.
func money(currency string, kwh decimal.Decimal, rate float64) string {
	return currency + fixed(kwh.Mul(decimal.NewFromFloat(rate)), 2)
}

// kilograms multiplies energy by a kg-per-kWh intensity.
func kilograms(kwh decimal.Decimal, intensity float64) string {
	return fixed(kwh.Mul(decimal.NewFromFloat(intensity)), 2) + unitKg
}

// kilometres multiplies energy by a km-per-kWh range, one decimal.
func kilometres(kwh decimal.Decimal, kmPerKWH float64) string {
	return fixed(kwh.Mul(decimal.NewFromFloat(kmPerKWH)), 1) + unitKm
}

// percent formats a state of charge.
func percent(d decimal.Decimal) string {
	return fixed(d, 0) + "%"
}
