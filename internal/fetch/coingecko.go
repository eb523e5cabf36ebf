package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yourorg/xfey-rate-tracker/internal/model"
)

// CoinGecko defaults
const (
	CoinGeckoURL = "https://api.coingecko.com"
	WethAssetID  = "weth"
)

const coinGeckoSource = "coingecko"

// SpotPriceClient fetches the USD price of a single asset
type SpotPriceClient struct {
	httpClient *http.Client
	baseURL    string
	assetID    string
	now        func() time.Time
}

// NewSpotPriceClient creates a CoinGecko simple-price client for assetID
func NewSpotPriceClient(httpClient *http.Client, baseURL, assetID string) *SpotPriceClient {
	return &SpotPriceClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		assetID:    assetID,
		now:        time.Now,
	}
}

// Fetch returns the USD price, or zero if the asset is absent from the response
func (c *SpotPriceClient) Fetch(ctx context.Context) (model.SpotPrice, error) {
	query := url.Values{}
	query.Set("ids", c.assetID)
	query.Set("vs_currencies", "usd")
	endpoint := fmt.Sprintf("%s/api/v3/simple/price?%s", c.baseURL, query.Encode())

	var response map[string]map[string]float64
	if err := getJSON(ctx, c.httpClient, coinGeckoSource, endpoint, nil, &response); err != nil {
		return model.SpotPrice{}, err
	}

	return model.SpotPrice{
		PriceUSD:    response[c.assetID]["usd"],
		LastUpdated: c.now().UnixMilli(),
	}, nil
}
