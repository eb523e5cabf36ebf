package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/yourorg/xfey-rate-tracker/internal/model"
	"github.com/yourorg/xfey-rate-tracker/internal/types"
)

// DexScreener defaults for the FEY/WETH pool on Base
const (
	DexScreenerURL = "https://api.dexscreener.com"
	FeyPairAddress = "0xe155c517c53f078f4b443c99436e42c1b80fd2fb1b3508f431c46b8365e4f3f0"
)

const dexScreenerSource = "dexscreener"

// MarketDataClient fetches price, liquidity and volume for one trading pair
type MarketDataClient struct {
	httpClient *http.Client
	baseURL    string
	chain      types.SupportedChain
	pair       string
	now        func() time.Time
}

// NewMarketDataClient creates a DexScreener client for pair on chain
func NewMarketDataClient(httpClient *http.Client, baseURL string, chain types.SupportedChain, pair string) *MarketDataClient {
	return &MarketDataClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		chain:      chain,
		pair:       pair,
		now:        time.Now,
	}
}

// dexPair mirrors the fields used from a DexScreener pair. Pointers distinguish an
// absent number from zero.
type dexPair struct {
	BaseToken struct {
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Symbol string `json:"symbol"`
	} `json:"quoteToken"`
	PriceUsd string `json:"priceUsd"`
	Volume   *struct {
		H24 *float64 `json:"h24"`
	} `json:"volume"`
	PriceChange *struct {
		H24 *float64 `json:"h24"`
	} `json:"priceChange"`
	Liquidity *struct {
		USD *float64 `json:"usd"`
	} `json:"liquidity"`
	Fdv       *float64 `json:"fdv"`
	MarketCap *float64 `json:"marketCap"`
}

// Fetch returns a snapshot of the first pair in the response
func (c *MarketDataClient) Fetch(ctx context.Context) (model.MarketSnapshot, error) {
	url := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", c.baseURL, c.chain, c.pair)

	var response struct {
		Pairs []dexPair `json:"pairs"`
	}
	if err := getJSON(ctx, c.httpClient, dexScreenerSource, url, nil, &response); err != nil {
		return model.MarketSnapshot{}, err
	}

	if len(response.Pairs) == 0 {
		return model.MarketSnapshot{}, &types.UpstreamError{Source: dexScreenerSource, Detail: "no pair data found"}
	}

	pair := response.Pairs[0]
	snapshot := model.MarketSnapshot{
		PriceUSD:     parsePrice(pair.PriceUsd),
		PoolName:     pair.BaseToken.Symbol + "/" + pair.QuoteToken.Symbol,
		MarketCapUSD: firstPresent(pair.Fdv, pair.MarketCap),
		FdvUSD:       pair.Fdv,
		LastUpdated:  c.now().UnixMilli(),
	}
	if pair.Liquidity != nil {
		snapshot.LiquidityUSD = pair.Liquidity.USD
	}
	if pair.PriceChange != nil {
		snapshot.PriceChange24h = pair.PriceChange.H24
	}
	if pair.Volume != nil {
		snapshot.Volume24h = pair.Volume.H24
	}

	return snapshot, nil
}

// parsePrice returns nil for an absent or unparseable decimal string
func parsePrice(s string) *float64 {
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &price
}

// firstPresent returns the first non-nil value, or nil
func firstPresent(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
