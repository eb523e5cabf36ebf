package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/yourorg/xfey-rate-tracker/internal/model"
	"github.com/yourorg/xfey-rate-tracker/internal/types"
)

// Dune query-result API defaults
const (
	DuneURL = "https://api.dune.com"

	RewardsQueryID = 6177560
	BuybackQueryID = 6193023

	// BuybackSeries is the series label of WETH spent on buybacks
	BuybackSeries = "weth_spent_buybacks"
)

const (
	duneSource    = "dune"
	duneAPIKeyEnv = "DUNE_API_KEY"
)

// duneQuery reads the latest result rows of one saved query
type duneQuery struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	queryID    int
}

// rows returns the result rows. A missing API key fails before any request is made.
func (q duneQuery) rows(ctx context.Context) ([]map[string]interface{}, error) {
	if q.apiKey == "" {
		return nil, &types.ConfigError{Key: duneAPIKeyEnv}
	}

	url := fmt.Sprintf("%s/api/v1/query/%d/results?limit=1000", q.baseURL, q.queryID)
	header := http.Header{}
	header.Set("X-Dune-API-Key", q.apiKey)

	var response struct {
		Result struct {
			Rows []map[string]interface{} `json:"rows"`
		} `json:"result"`
	}
	if err := getJSON(ctx, q.httpClient, duneSource, url, header, &response); err != nil {
		return nil, err
	}
	return response.Result.Rows, nil
}

// RewardsClient reads the total FEY awarded to stakers
type RewardsClient struct {
	query duneQuery
	now   func() time.Time
}

// NewRewardsClient creates the rewards-awarded adapter
func NewRewardsClient(httpClient *http.Client, baseURL, apiKey string, queryID int) *RewardsClient {
	return &RewardsClient{
		query: duneQuery{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey, queryID: queryID},
		now:   time.Now,
	}
}

// Fetch returns total_fey from the first result row, rounded to a whole token
func (c *RewardsClient) Fetch(ctx context.Context) (model.RewardsTotal, error) {
	rows, err := c.query.rows(ctx)
	if err != nil {
		return model.RewardsTotal{}, err
	}

	var total float64
	if len(rows) > 0 {
		total = toFloat(rows[0]["total_fey"])
	}

	return model.RewardsTotal{
		TotalFeyAwarded: math.Round(total),
		LastUpdated:     c.now().UnixMilli(),
	}, nil
}

// BuybackClient sums WETH spent on buybacks
type BuybackClient struct {
	query  duneQuery
	series string
	now    func() time.Time
}

// NewBuybackClient creates the buyback-spend adapter
func NewBuybackClient(httpClient *http.Client, baseURL, apiKey string, queryID int) *BuybackClient {
	return &BuybackClient{
		query:  duneQuery{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey, queryID: queryID},
		series: BuybackSeries,
		now:    time.Now,
	}
}

// Fetch sums value over rows whose series matches
func (c *BuybackClient) Fetch(ctx context.Context) (model.BuybackTotal, error) {
	rows, err := c.query.rows(ctx)
	if err != nil {
		return model.BuybackTotal{}, err
	}

	return model.BuybackTotal{
		TotalWethBuyback: sumSeries(rows, c.series),
		LastUpdated:      c.now().UnixMilli(),
	}, nil
}

func sumSeries(rows []map[string]interface{}, series string) float64 {
	var total float64
	for _, row := range rows {
		if label, _ := row["series"].(string); label != series {
			continue
		}
		total += toFloat(row["value"])
	}
	return total
}

// toFloat reads a numeric cell that may arrive as a number or a string. Missing or
// unparseable values count as zero.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
