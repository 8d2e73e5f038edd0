package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/energydash/energydash/pkg/types"
	"github.com/shopspring/decimal"
)

// maxExponent bounds the exponent accepted from payloads so a value like
// "1e999999999" is rejected instead of expanded. Values with more fractional
// digits are rounded to maxExponent places.
const maxExponent = 18

// number extracts a finite numeric value. json.Number, float and int values
// and numeric strings are accepted; anything else is unavailable.
func number(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		return parseDecimal(string(n))
	case string:
		return parseDecimal(n)
	case float64:
		return fromFloat(n)
	case float32:
		return fromFloat(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case int32:
		return decimal.NewFromInt32(n), true
	}
	return decimal.Zero, false
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	// only plain decimal notation with an optional exponent
	for _, r := range s {
		if !strings.ContainsRune("0123456789+-.eE", r) {
			return decimal.Zero, false
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	e := d.Exponent()
	if e > maxExponent {
		return decimal.Zero, false
	}
	if e < -maxExponent {
		// position of the leading digit
		if int(e)+d.NumDigits()-1 < -maxExponent {
			return decimal.Zero, true
		}
		d = d.Round(maxExponent)
	}
	return d, true
}

// object returns v as a JSON object.
func object(v any) (map[string]any, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, o != nil
	case types.RawSample:
		return map[string]any(o), o != nil
	}
	return nil, false
}

// text returns v when it is a non-empty string.
func text(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// code renders a status code the way it should appear inside "Unknown (...)".
// Vendor codes are numbers or single letters; numbers lose trailing zeros.
func code(v any) (string, bool) {
	if d, ok := number(v); ok {
		return d.String(), true
	}
	s, ok := text(v)
	if !ok || len(s) != 1 || !unicode.IsLetter(rune(s[0])) {
		return "", false
	}
	return strings.ToUpper(s), true
}

// clock returns v when it is a time of day.
func clock(v any) (string, bool) {
	s, ok := text(v)
	if !ok {
		return "", false
	}
	t, err := time.Parse(time.TimeOnly, s)
	if err != nil {
		return "", false
	}
	return t.Format(time.TimeOnly), true
}

// fields wraps a payload object for lookups.
type fields map[string]any

func (f fields) num(key string) (decimal.Decimal, bool) {
	if f == nil {
		return decimal.Zero, false
	}
	return number(f[key])
}

func (f fields) clock(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	return clock(f[key])
}

func (f fields) raw(key string) any {
	if f == nil {
		return nil
	}
	return f[key]
}
