package matcher

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Policy selects how targets are matched against the current price.
type Policy int

const (
	// PolicyTouch fires a target whenever the current price is at, above
	// or below it — which is every sweep for every target. This is the
	// behavior the bot has always had; see DESIGN.md before changing the
	// default.
	PolicyTouch Policy = iota

	// PolicyCross fires a target only when the price moved through it
	// since the previous sweep.
	PolicyCross
)

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "touch":
		return PolicyTouch, nil
	case "cross":
		return PolicyCross, nil
	}
	return PolicyTouch, errors.Errorf("unknown match policy %q", s)
}

// Result partitions a target list into fired and still-active targets.
// Remaining keeps the ascending order of the input.
type Result struct {
	Fired     []decimal.Decimal
	Remaining []decimal.Decimal
}

// Evaluate decides which of targets fire at the current price. lastPrice
// is only consulted by PolicyCross; pass nil when no previous price is
// known, in which case nothing fires and the sweep just seeds the history.
func Evaluate(p Policy, current decimal.Decimal, lastPrice *decimal.Decimal, targets []decimal.Decimal) Result {
	var res Result
	for _, t := range targets {
		if fires(p, current, lastPrice, t) {
			res.Fired = append(res.Fired, t)
		} else {
			res.Remaining = append(res.Remaining, t)
		}
	}
	return res
}

func fires(p Policy, current decimal.Decimal, lastPrice *decimal.Decimal, target decimal.Decimal) bool {
	switch p {
	case PolicyCross:
		if lastPrice == nil {
			return false
		}
		return (lastPrice.LessThan(target) && current.GreaterThanOrEqual(target)) ||
			(lastPrice.GreaterThan(target) && current.LessThanOrEqual(target))
	default:
		return current.GreaterThanOrEqual(target) || current.LessThanOrEqual(target)
	}
}
