package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/xfey-rate-tracker/internal/types"
)

func newJSONServer(t *testing.T, status int, body string, check func(r *http.Request)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestMarketDataClient_Fetch(t *testing.T) {
	body := `{"pairs":[{
		"baseToken":{"symbol":"FEY"},"quoteToken":{"symbol":"WETH"},
		"priceUsd":"0.001234",
		"volume":{"h24":52000.5},
		"priceChange":{"h24":-3.2},
		"liquidity":{"usd":810000},
		"fdv":123400000,
		"marketCap":98000000
	}]}`
	srv, _ := newJSONServer(t, http.StatusOK, body, func(r *http.Request) {
		assert.Equal(t, "/latest/dex/pairs/base/"+FeyPairAddress, r.URL.Path)
	})

	got, err := NewMarketDataClient(NewHTTPClient(time.Second), srv.URL, types.ChainBase, FeyPairAddress).
		Fetch(context.Background())
	require.NoError(t, err)

	require.NotNil(t, got.PriceUSD)
	assert.Equal(t, 0.001234, *got.PriceUSD)
	assert.Equal(t, "FEY/WETH", got.PoolName)
	require.NotNil(t, got.MarketCapUSD)
	assert.Equal(t, 123400000.0, *got.MarketCapUSD, "FDV is preferred over market cap")
	require.NotNil(t, got.LiquidityUSD)
	assert.Equal(t, 810000.0, *got.LiquidityUSD)
	require.NotNil(t, got.PriceChange24h)
	assert.Equal(t, -3.2, *got.PriceChange24h)
	require.NotNil(t, got.Volume24h)
	assert.Equal(t, 52000.5, *got.Volume24h)
	assert.NotZero(t, got.LastUpdated)
}

func TestMarketDataClient_NullableFields(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantPrice     *float64
		wantMarketCap *float64
	}{
		{
			name:          "no fdv and no market cap",
			body:          `{"pairs":[{"baseToken":{"symbol":"FEY"},"quoteToken":{"symbol":"WETH"},"priceUsd":"1.5"}]}`,
			wantPrice:     ptr(1.5),
			wantMarketCap: nil,
		},
		{
			name:          "market cap fallback",
			body:          `{"pairs":[{"baseToken":{"symbol":"FEY"},"quoteToken":{"symbol":"WETH"},"priceUsd":"1.5","marketCap":42}]}`,
			wantPrice:     ptr(1.5),
			wantMarketCap: ptr(42),
		},
		{
			name: "missing price",
			body: `{"pairs":[{"baseToken":{"symbol":"FEY"},"quoteToken":{"symbol":"WETH"}}]}`,
		},
		{
			name: "unparseable price",
			body: `{"pairs":[{"baseToken":{"symbol":"FEY"},"quoteToken":{"symbol":"WETH"},"priceUsd":"n/a"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newJSONServer(t, http.StatusOK, tt.body, nil)

			got, err := NewMarketDataClient(NewHTTPClient(time.Second), srv.URL, types.ChainBase, FeyPairAddress).
				Fetch(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantPrice, got.PriceUSD)
			assert.Equal(t, "FEY/WETH", got.PoolName)
			assert.Equal(t, tt.wantMarketCap, got.MarketCapUSD)
			assert.Nil(t, got.FdvUSD)
			assert.Nil(t, got.LiquidityUSD)
			assert.Nil(t, got.PriceChange24h)
			assert.Nil(t, got.Volume24h)
		})
	}
}

func TestMarketDataClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"error":"slow down"}`, wantStatus: http.StatusTooManyRequests},
		{name: "empty result set", status: http.StatusOK, body: `{"pairs":[]}`},
		{name: "null result set", status: http.StatusOK, body: `{"pairs":null}`},
		{name: "malformed body", status: http.StatusOK, body: `<html>`, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newJSONServer(t, tt.status, tt.body, nil)

			_, err := NewMarketDataClient(NewHTTPClient(time.Second), srv.URL, types.ChainBase, FeyPairAddress).
				Fetch(context.Background())

			var upstream *types.UpstreamError
			require.ErrorAs(t, err, &upstream)
			assert.Equal(t, "dexscreener", upstream.Source)
			assert.Equal(t, tt.wantStatus, upstream.Status)
		})
	}
}

func TestRewardsClient_Fetch(t *testing.T) {
	body := `{"result":{"rows":[{"total_fey":"1234567.6"},{"total_fey":"1"}]}}`
	srv, _ := newJSONServer(t, http.StatusOK, body, func(r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("X-Dune-API-Key"))
		assert.Equal(t, "/api/v1/query/6177560/results", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
	})

	got, err := NewRewardsClient(NewHTTPClient(time.Second), srv.URL, "key-123", RewardsQueryID).
		Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1234568.0, got.TotalFeyAwarded)
}

func TestRewardsClient_NoRows(t *testing.T) {
	srv, _ := newJSONServer(t, http.StatusOK, `{"result":{"rows":[]}}`, nil)

	got, err := NewRewardsClient(NewHTTPClient(time.Second), srv.URL, "key", RewardsQueryID).
		Fetch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.TotalFeyAwarded)
}

func TestBuybackClient_SumsMatchingSeries(t *testing.T) {
	body := `{"result":{"rows":[
		{"series":"weth_spent_buybacks","value":"1.5"},
		{"series":"other","value":"99"},
		{"series":"weth_spent_buybacks","value":"2.5"}
	]}}`
	srv, _ := newJSONServer(t, http.StatusOK, body, nil)

	got, err := NewBuybackClient(NewHTTPClient(time.Second), srv.URL, "key", BuybackQueryID).
		Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.TotalWethBuyback)
}

func TestSumSeries_MissingAndUnparseable(t *testing.T) {
	rows := []map[string]interface{}{
		{"series": BuybackSeries, "value": 2.0},
		{"series": BuybackSeries, "value": "abc"},
		{"series": BuybackSeries},
		{"series": BuybackSeries, "value": nil},
		{"value": "5"},
	}
	assert.Equal(t, 2.0, sumSeries(rows, BuybackSeries))
}

func TestAnalyticsClients_MissingAPIKey(t *testing.T) {
	srv, calls := newJSONServer(t, http.StatusOK, `{}`, nil)
	httpClient := NewHTTPClient(time.Second)

	_, err := NewRewardsClient(httpClient, srv.URL, "", RewardsQueryID).Fetch(context.Background())
	var cfgErr *types.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "DUNE_API_KEY", cfgErr.Key)

	_, err = NewBuybackClient(httpClient, srv.URL, "", BuybackQueryID).Fetch(context.Background())
	require.ErrorAs(t, err, &cfgErr)

	assert.Zero(t, atomic.LoadInt32(calls), "no request may be made without a key")
}

func TestAnalyticsClients_UpstreamStatus(t *testing.T) {
	srv, _ := newJSONServer(t, http.StatusUnauthorized, `{"error":"invalid API Key"}`, nil)

	_, err := NewBuybackClient(NewHTTPClient(time.Second), srv.URL, "bad", BuybackQueryID).Fetch(context.Background())

	var upstream *types.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusUnauthorized, upstream.Status)
	assert.Contains(t, upstream.Detail, "invalid API Key")
}

func TestSpotPriceClient_Fetch(t *testing.T) {
	srv, _ := newJSONServer(t, http.StatusOK, `{"weth":{"usd":3150.42}}`, func(r *http.Request) {
		assert.Equal(t, "/api/v3/simple/price", r.URL.Path)
		assert.Equal(t, "weth", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
	})

	got, err := NewSpotPriceClient(NewHTTPClient(time.Second), srv.URL, WethAssetID).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3150.42, got.PriceUSD)
}

func TestSpotPriceClient_MissingPriceIsZero(t *testing.T) {
	srv, _ := newJSONServer(t, http.StatusOK, `{}`, nil)

	got, err := NewSpotPriceClient(NewHTTPClient(time.Second), srv.URL, WethAssetID).Fetch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, got.PriceUSD)
}

func TestSpotPriceClient_ServerError(t *testing.T) {
	srv, calls := newJSONServer(t, http.StatusInternalServerError, `oops`, nil)

	_, err := NewSpotPriceClient(NewHTTPClient(time.Second), srv.URL, WethAssetID).Fetch(context.Background())

	var upstream *types.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusInternalServerError, upstream.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "adapters make a single attempt")
}

func ptr(v float64) *float64 {
	return &v
}
