package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversionRate(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)

	tests := []struct {
		name        string
		feyAmount   float64
		wantRate    float64
		wantGain    float64
		wantGainPct float64
	}{
		{
			name:        "par",
			feyAmount:   1_000_000,
			wantRate:    1.0,
			wantGain:    0,
			wantGainPct: 0,
		},
		{
			name:        "accrued rewards",
			feyAmount:   17_023_040,
			wantRate:    17.02304,
			wantGain:    16_023_040,
			wantGainPct: 1602.304,
		},
		{
			name:        "below par",
			feyAmount:   500_000,
			wantRate:    0.5,
			wantGain:    -500_000,
			wantGainPct: -50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewConversionRate(tt.feyAmount, at)
			assert.Equal(t, float64(ReferenceAmount), got.XFeyAmount)
			assert.Equal(t, tt.feyAmount, got.FeyAmount)
			assert.InDelta(t, tt.wantRate, got.ConversionRate, 1e-9)
			assert.Equal(t, tt.wantGain, got.TotalGain)
			assert.InDelta(t, tt.wantGainPct, got.PercentageGain, 1e-9)
			assert.Equal(t, at.UnixMilli(), got.Timestamp)

			// derived fields stay mutually consistent
			assert.InDelta(t, got.ConversionRate*got.XFeyAmount-got.XFeyAmount, got.TotalGain, 1e-6)
			assert.InDelta(t, (got.ConversionRate-1)*100, got.PercentageGain, 1e-9)
		})
	}
}

func TestNewStakedSupply(t *testing.T) {
	got := NewStakedSupply(25_000_000_000, time.UnixMilli(42))

	assert.Equal(t, float64(TotalSupply), got.TotalSupply)
	assert.InDelta(t, 25.0, got.PercentageStaked, 1e-12)
	assert.Equal(t, int64(42), got.Timestamp)
}

func TestMarketSnapshot_AbsentFieldsAreNull(t *testing.T) {
	zero := 0.0
	snapshot := MarketSnapshot{PoolName: "FEY/WETH", LiquidityUSD: &zero, LastUpdated: 1_700_000_000_000}

	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"priceUSD": null,
		"poolName": "FEY/WETH",
		"marketCapUSD": null,
		"fdvUSD": null,
		"liquidityUSD": 0,
		"priceChange24h": null,
		"volume24h": null,
		"lastUpdated": 1700000000000
	}`, string(raw))
}
