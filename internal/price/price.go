package price

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrUnavailable signals that no current price could be obtained. Callers
// must treat it as "skip this cycle", never as zero or a stale value.
var ErrUnavailable = errors.New("price unavailable")

// Oracle fetches the current quote for the configured asset. One request
// per call, no retries: retry policy belongs to the caller.
type Oracle interface {
	FetchCurrentPrice(ctx context.Context) (decimal.Decimal, error)
}
