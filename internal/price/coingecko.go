package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoClient fetches a single simple-price quote from CoinGecko.
type CoinGeckoClient struct {
	BaseURL    string
	AssetID    string
	VsCurrency string
	HTTPClient *http.Client
}

func NewCoinGeckoClient(assetID, vsCurrency string) *CoinGeckoClient {
	return &CoinGeckoClient{
		BaseURL:    coinGeckoBaseURL,
		AssetID:    assetID,
		VsCurrency: vsCurrency,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *CoinGeckoClient) FetchCurrentPrice(ctx context.Context) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=%s", c.BaseURL, c.AssetID, c.VsCurrency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(ErrUnavailable, err.Error())
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Debugf("coingecko request failed: %v", err)
		return decimal.Zero, errors.Wrap(ErrUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, errors.Wrapf(ErrUnavailable, "unexpected status %d", resp.StatusCode)
	}

	var payload map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, errors.Wrap(ErrUnavailable, err.Error())
	}

	quote, ok := payload[c.AssetID][c.VsCurrency]
	if !ok || !quote.IsPositive() {
		return decimal.Zero, errors.Wrapf(ErrUnavailable, "no %s quote for %s", c.VsCurrency, c.AssetID)
	}
	return quote, nil
}
