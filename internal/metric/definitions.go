package metric

import "time"

// Metric definitions. TTLs follow each upstream's volatility and rate limits.
var (
	ConversionRate = Config{
		Name:           "conversion_rate",
		Key:            "current_conversion_rate",
		TTL:            60 * time.Second,
		FailureMessage: "Failed to fetch conversion rate",
	}

	StakedSupply = Config{
		Name:           "staked_supply",
		Key:            "staked_supply_v2",
		TTL:            5 * time.Minute,
		FailureMessage: "Failed to fetch staked supply",
	}

	MarketData = Config{
		Name:           "market_data",
		Key:            "dexscreener_fey_price_v1",
		TTL:            60 * time.Second,
		FailureMessage: "Failed to fetch price data",
	}

	SpotPrice = Config{
		Name:           "spot_price",
		Key:            "gecko_weth_price",
		TTL:            5 * time.Minute,
		FailureMessage: "Failed to fetch WETH price",
	}

	Rewards = Config{
		Name:           "rewards",
		Key:            "dune_fey_awarded_v4",
		TTL:            30 * time.Minute,
		FailureMessage: "Failed to fetch Dune data",
	}

	Buyback = Config{
		Name:           "buyback",
		Key:            "dune_weth_buyback",
		TTL:            30 * time.Second,
		FailureMessage: "Failed to fetch Dune buyback data",
	}
)
