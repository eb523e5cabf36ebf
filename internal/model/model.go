// Package model defines the records served by the tracker and the conversion-rate math.
package model

import (
	"time"
)

// ReferenceAmount is the fixed amount of xFEY previewed for redemption on every rate read.
// It must never be zero.
const ReferenceAmount = 1_000_000

// TotalSupply is the fixed FEY total supply used for the staked percentage
const TotalSupply = 100_000_000_000

// ConversionRate is the xFEY -> FEY exchange rate at a point in time.
// All derived fields come from a single on-chain read of FeyAmount.
type ConversionRate struct {
	// XFeyAmount is the reference amount of receipt token previewed
	XFeyAmount float64 `json:"xFeyAmount"`

	// FeyAmount is the underlying amount the reference redeems for
	FeyAmount float64 `json:"feyAmount"`

	// ConversionRate is FeyAmount / XFeyAmount
	ConversionRate float64 `json:"conversionRate"`

	// TotalGain is FeyAmount - XFeyAmount
	TotalGain float64 `json:"totalGain"`

	// PercentageGain is 100 * TotalGain / XFeyAmount
	PercentageGain float64 `json:"percentageGain"`

	// Timestamp is the collection time in epoch milliseconds
	Timestamp int64 `json:"timestamp"`
}

// NewConversionRate derives a ConversionRate from the redeemable amount for ReferenceAmount
func NewConversionRate(feyAmount float64, at time.Time) ConversionRate {
	const ref = float64(ReferenceAmount)
	gain := feyAmount - ref
	return ConversionRate{
		XFeyAmount:     ref,
		FeyAmount:      feyAmount,
		ConversionRate: feyAmount / ref,
		TotalGain:      gain,
		PercentageGain: 100 * gain / ref,
		Timestamp:      at.UnixMilli(),
	}
}

// StakedSupply is the fraction of FEY supply locked in the staking vault
type StakedSupply struct {
	TotalStaked      float64 `json:"totalStaked"`
	TotalSupply      float64 `json:"totalSupply"`
	PercentageStaked float64 `json:"percentageStaked"`
	Timestamp        int64   `json:"timestamp"`
}

// NewStakedSupply computes the staked percentage against the fixed TotalSupply
func NewStakedSupply(totalStaked float64, at time.Time) StakedSupply {
	return StakedSupply{
		TotalStaked:      totalStaked,
		TotalSupply:      TotalSupply,
		PercentageStaked: totalStaked / TotalSupply * 100,
		Timestamp:        at.UnixMilli(),
	}
}

// MarketSnapshot holds pool market data. Nil pointers are serialized as null
// and mean the upstream did not report the field.
type MarketSnapshot struct {
	PriceUSD       *float64 `json:"priceUSD"`
	PoolName       string   `json:"poolName"`
	MarketCapUSD   *float64 `json:"marketCapUSD"`
	FdvUSD         *float64 `json:"fdvUSD"`
	LiquidityUSD   *float64 `json:"liquidityUSD"`
	PriceChange24h *float64 `json:"priceChange24h"`
	Volume24h      *float64 `json:"volume24h"`
	LastUpdated    int64    `json:"lastUpdated"`
}

// SpotPrice is a single USD price for a secondary asset
type SpotPrice struct {
	PriceUSD    float64 `json:"priceUSD"`
	LastUpdated int64   `json:"lastUpdated"`
}

// RewardsTotal is the total FEY awarded to stakers
type RewardsTotal struct {
	TotalFeyAwarded float64 `json:"totalFeyAwarded"`
	LastUpdated     int64   `json:"lastUpdated"`
}

// BuybackTotal is the total WETH spent on buybacks
type BuybackTotal struct {
	TotalWethBuyback float64 `json:"totalWethBuyback"`
	LastUpdated      int64   `json:"lastUpdated"`
}

// HistoryRecord is a persisted conversion-rate snapshot
type HistoryRecord struct {
	ID             int64     `json:"id"`
	XFeyAmount     float64   `json:"xfey_amount"`
	FeyAmount      float64   `json:"fey_amount"`
	ConversionRate float64   `json:"conversion_rate"`
	GainsPercent   float64   `json:"gains_percent"`
	CreatedAt      time.Time `json:"created_at"`
}
