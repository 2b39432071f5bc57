// Package adjust computes the multiplicative price-adjustment factor for a
// corporate action. It is pure computation: no database access, no side
// effects. Callers supply the last adjusted closing price strictly before the
// action's book-close date when the action kind requires one.
package adjust

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Action kinds understood by the calculator. Matching is case- and
// whitespace-insensitive; anything else resolves to a neutral factor.
const (
	KindBonus = "bonus"
	KindRight = "right"
	KindCash  = "cash"
)

// DefaultParValue is the face value assumed when neither the action nor the
// company specifies one.
const DefaultParValue = 100

// FactorPrecision is the number of decimal places the persisted factor is
// rounded to on the corporate-action audit record.
const FactorPrecision = 6

// clampFloor is the smallest factor a cash dividend may resolve to when the
// dividend amount meets or exceeds the prior close.
var clampFloor = decimal.NewFromFloat(0.01)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Result is the outcome of a factor computation. Factor is always positive
// and finite. Resolved is false when the computation fell back to the neutral
// factor 1 because required inputs were missing or unusable; Reason explains
// the fallback (or the clamp) for logging and audit.
type Result struct {
	Factor   decimal.Decimal
	Resolved bool
	Reason   string
}

// Neutral returns the no-op result with the given reason.
func Neutral(reason string) Result {
	return Result{Factor: one, Resolved: false, Reason: reason}
}

// NormalizeKind canonicalizes an action kind for matching.
func NormalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

// Factor computes the multiplicative adjustment factor for one corporate
// action. rate is the declared percentage (10 means 10%). par is the face
// value base for right/cash math. prevClose is the last adjusted close
// strictly before the book-close date; havePrev is false when no such row
// exists.
//
// Missing or non-positive prior prices never abort the computation: the
// result falls back to factor 1 so the surrounding rebuild can continue.
func Factor(kind string, rate, par float64, prevClose decimal.Decimal, havePrev bool) Result {
	if par <= 0 {
		par = DefaultParValue
	}
	r := decimal.NewFromFloat(rate).Div(hundred)
	parValue := decimal.NewFromFloat(par)

	switch NormalizeKind(kind) {
	case KindBonus:
		// Share-count dilution: F = 1 / (1 + R). No price lookup needed.
		return Result{Factor: one.Div(one.Add(r)), Resolved: true}

	case KindRight:
		if !havePrev || !prevClose.IsPositive() {
			return Neutral("no usable traded price before book close")
		}
		// F = (P + par*R) / (P * (1 + R))
		numerator := prevClose.Add(parValue.Mul(r))
		denominator := prevClose.Mul(one.Add(r))
		return Result{Factor: numerator.Div(denominator), Resolved: true}

	case KindCash:
		if !havePrev || !prevClose.IsPositive() {
			return Neutral("no usable traded price before book close")
		}
		// Dividend is a percentage of par, not of market price.
		dividend := parValue.Mul(r)
		adjusted := prevClose.Sub(dividend)
		if !adjusted.IsPositive() {
			// Dividend wipes out the price: bad data, clamp instead of
			// producing a non-positive factor.
			return Result{
				Factor:   clampFloor,
				Resolved: true,
				Reason:   fmt.Sprintf("dividend %s exceeds prior close %s, factor clamped", dividend, prevClose),
			}
		}
		return Result{Factor: adjusted.Div(prevClose), Resolved: true}

	default:
		return Neutral(fmt.Sprintf("unrecognized action kind %q", kind))
	}
}
