package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/xfey-rate-tracker/internal/model"
	"github.com/yourorg/xfey-rate-tracker/internal/types"
)

// Function selectors on the xFEY vault
var (
	previewRedeemSelector = selector("previewRedeem(uint256)") // 0x4cdad506
	totalAssetsSelector   = selector("totalAssets()")          // 0x01e1d114
)

// weiPerToken is 10^18, the fixed-point scale of totalAssets()
var weiPerToken = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

func selector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:4]
}

// ChainCaller issues read-only eth_call requests against one contract
type ChainCaller struct {
	source   string
	client   *rpc.Client
	contract common.Address
}

// NewChainCaller dials the chain's RPC endpoint over httpClient. Dialing HTTP does not
// perform any I/O.
func NewChainCaller(ctx context.Context, chain types.ChainConfig, httpClient *http.Client) (*ChainCaller, error) {
	client, err := rpc.DialOptions(ctx, chain.RPCEndpoint, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s rpc client: %w", chain.Chain, err)
	}

	return &ChainCaller{
		source:   string(chain.Chain) + "-rpc",
		client:   client,
		contract: common.HexToAddress(chain.ContractAddress),
	}, nil
}

// Close releases the underlying RPC client
func (c *ChainCaller) Close() {
	c.client.Close()
}

// callData concatenates a selector with each argument as a 32-byte big-endian word
func callData(sel []byte, args ...*big.Int) []byte {
	data := make([]byte, 0, len(sel)+32*len(args))
	data = append(data, sel...)
	for _, arg := range args {
		data = append(data, common.LeftPadBytes(arg.Bytes(), 32)...)
	}
	return data
}

// Call performs eth_call at the latest block and decodes the result as an unsigned integer
func (c *ChainCaller) Call(ctx context.Context, sel []byte, args ...*big.Int) (*big.Int, error) {
	msg := map[string]interface{}{
		"to":   c.contract,
		"data": hexutil.Bytes(callData(sel, args...)),
	}

	var result string
	if err := c.client.CallContext(ctx, &result, "eth_call", msg, "latest"); err != nil {
		return nil, c.upstreamError(err)
	}

	value, err := decodeUint(result)
	if err != nil {
		return nil, &types.UpstreamError{Source: c.source, Detail: "malformed eth_call result", Err: err}
	}
	return value, nil
}

func (c *ChainCaller) upstreamError(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return &types.UpstreamError{Source: c.source, Status: rpcErr.ErrorCode(), Detail: rpcErr.Error()}
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return &types.UpstreamError{Source: c.source, Status: httpErr.StatusCode, Detail: string(httpErr.Body)}
	}

	return &types.UpstreamError{Source: c.source, Err: err}
}

// decodeUint parses a 0x-prefixed hex quantity. Odd lengths and leading zeros are
// accepted since node implementations differ.
func decodeUint(hex string) (*big.Int, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(hex, "0x"), "0X")
	if digits == "" {
		return nil, fmt.Errorf("empty result %q", hex)
	}

	value, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex result %q", hex)
	}
	return value, nil
}

// ConversionRateClient reads previewRedeem(ReferenceAmount) from the xFEY vault
type ConversionRateClient struct {
	caller *ChainCaller
	now    func() time.Time
}

// NewConversionRateClient creates the conversion-rate adapter
func NewConversionRateClient(caller *ChainCaller) *ConversionRateClient {
	return &ConversionRateClient{caller: caller, now: time.Now}
}

// WithClock replaces the timestamp source and returns the client
func (c *ConversionRateClient) WithClock(now func() time.Time) *ConversionRateClient {
	c.now = now
	return c
}

// Fetch returns the current conversion rate. The redeemable amount is used as-is;
// no decimal adjustment applies at this call.
func (c *ConversionRateClient) Fetch(ctx context.Context) (model.ConversionRate, error) {
	redeemable, err := c.caller.Call(ctx, previewRedeemSelector, big.NewInt(model.ReferenceAmount))
	if err != nil {
		return model.ConversionRate{}, err
	}

	feyAmount, _ := new(big.Float).SetInt(redeemable).Float64()
	rate := model.NewConversionRate(feyAmount, c.now())

	logrus.WithFields(logrus.Fields{
		"fey_amount":      rate.FeyAmount,
		"conversion_rate": rate.ConversionRate,
	}).Debug("Fetched conversion rate")

	return rate, nil
}

// StakedSupplyClient reads totalAssets() from the xFEY vault
type StakedSupplyClient struct {
	caller *ChainCaller
	now    func() time.Time
}

// NewStakedSupplyClient creates the staked-supply adapter
func NewStakedSupplyClient(caller *ChainCaller) *StakedSupplyClient {
	return &StakedSupplyClient{caller: caller, now: time.Now}
}

// WithClock replaces the timestamp source and returns the client
func (c *StakedSupplyClient) WithClock(now func() time.Time) *StakedSupplyClient {
	c.now = now
	return c
}

// Fetch returns the staked share of total supply. totalAssets() is 18-decimal fixed point.
func (c *StakedSupplyClient) Fetch(ctx context.Context) (model.StakedSupply, error) {
	wei, err := c.caller.Call(ctx, totalAssetsSelector)
	if err != nil {
		return model.StakedSupply{}, err
	}

	staked, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerToken).Float64()
	return model.NewStakedSupply(staked, c.now()), nil
}
