// Package types contains shared type definitions used across multiple packages
package types

// SupportedChain represents a blockchain network the tracker reads from
type SupportedChain string

// Supported blockchain networks
const (
	ChainBase SupportedChain = "base"
)

// ChainConfig holds the fixed read endpoint for a network and the contract queried on it
type ChainConfig struct {
	Chain           SupportedChain `json:"chain"`
	RPCEndpoint     string         `json:"rpc_endpoint"`
	ContractAddress string         `json:"contract_address"`
}

// Compiled-in endpoint and staking vault address. These are intentionally not configurable.
const (
	BaseRPCEndpoint     = "https://mainnet.base.org"
	XFeyContractAddress = "0x72f5565ab147105614ca4eb83ecf15f751fd8c50"
)

// BaseChain returns the configuration used by the chain call adapters
func BaseChain() ChainConfig {
	return ChainConfig{
		Chain:           ChainBase,
		RPCEndpoint:     BaseRPCEndpoint,
		ContractAddress: XFeyContractAddress,
	}
}
