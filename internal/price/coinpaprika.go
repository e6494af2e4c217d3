package price

import (
	"context"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// CoinPaprikaClient is the alternative oracle backed by the CoinPaprika
// tickers API. Ticker IDs look like "ton-toncoin".
type CoinPaprikaClient struct {
	client   *coinpaprika.Client
	tickerID string
}

func NewCoinPaprikaClient(tickerID, apiProKey string) *CoinPaprikaClient {
	client := coinpaprika.NewClient(nil)
	if apiProKey != "" {
		client = coinpaprika.NewClient(nil, coinpaprika.WithAPIKey(apiProKey))
	}
	return &CoinPaprikaClient{client: client, tickerID: tickerID}
}

func (c *CoinPaprikaClient) FetchCurrentPrice(ctx context.Context) (decimal.Decimal, error) {
	tickerOpts := &coinpaprika.TickersOptions{Quotes: "USD"}
	ticker, err := c.client.Tickers.GetByID(c.tickerID, tickerOpts)
	if err != nil {
		return decimal.Zero, errors.Wrap(ErrUnavailable, err.Error())
	}

	quote, ok := ticker.Quotes["USD"]
	if !ok || quote.Price == nil || *quote.Price <= 0 {
		return decimal.Zero, errors.Wrapf(ErrUnavailable, "ticker %s has no USD quote", c.tickerID)
	}
	return decimal.NewFromFloat(*quote.Price), nil
}
