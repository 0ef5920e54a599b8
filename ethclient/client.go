package ethclient

import (
	"context"
	"fmt"
	"maps"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client is a typed client for an Ethereum JSON-RPC endpoint.
//
// All methods are synchronous and may be called concurrently. The client
// keeps no per-call state: nothing is cached and nothing is retried.
type Client struct {
	c       *rpc.Client
	hc      *http.Client
	cfg     Config
	chainID *big.Int
	log     log.Logger
}

// Option customizes a Client built by NewClient.
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     log.Logger
}

// WithHTTPClient replaces the HTTP client built from Config. Config.Timeout
// and Config.Proxy are then ignored in favour of hc's own settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger. The default is log.Root().
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewClient validates cfg and creates a client for cfg.Endpoint. No request
// is sent.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Headers = maps.Clone(cfg.Headers)

	o := options{logger: log.Root()}
	for _, opt := range opts {
		opt(&o)
	}

	hc := o.httpClient
	if hc == nil {
		var err error
		if hc, err = cfg.newHTTPClient(); err != nil {
			return nil, err
		}
	}

	rpcOpts := []rpc.ClientOption{rpc.WithHTTPClient(hc)}
	if cfg.UserAgent != "" {
		rpcOpts = append(rpcOpts, rpc.WithHeader("User-Agent", cfg.UserAgent))
	}
	for k, v := range cfg.Headers {
		rpcOpts = append(rpcOpts, rpc.WithHeader(k, v))
	}
	c, err := rpc.DialOptions(ctx, cfg.Endpoint, rpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create RPC client for %s: %w", cfg.Endpoint, err)
	}

	return &Client{
		c:       c,
		hc:      hc,
		cfg:     cfg,
		chainID: new(big.Int).SetUint64(cfg.ChainID),
		log:     o.logger.With("endpoint", cfg.Endpoint),
	}, nil
}

// Dial creates a client for rawurl with the remaining settings taken from
// DefaultConfig.
func Dial(rawurl string) (*Client, error) {
	return DialContext(context.Background(), rawurl)
}

// DialContext is Dial with a context.
func DialContext(ctx context.Context, rawurl string) (*Client, error) {
	cfg := DefaultConfig
	cfg.Endpoint = rawurl
	return NewClient(ctx, cfg)
}

// Close closes the underlying RPC client and drops idle connections.
func (c *Client) Close() {
	c.c.Close()
	c.hc.CloseIdleConnections()
}

// Client returns the underlying RPC client.
func (c *Client) Client() *rpc.Client {
	return c.c
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	cfg := c.cfg
	cfg.Headers = maps.Clone(c.cfg.Headers)
	return cfg
}

// call performs one JSON-RPC request and sorts any failure into the package
// error types.
func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	start := time.Now()
	if err := c.c.CallContext(ctx, result, method, args...); err != nil {
		err = wrapCallError(method, err)
		c.log.Debug("RPC call failed", "method", method, "elapsed", time.Since(start), "err", err)
		return err
	}
	c.log.Trace("RPC call", "method", method, "elapsed", time.Since(start))
	return nil
}

// BlockNumber returns the most recent block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	if err := c.call(ctx, &result, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

// BlockByNumber returns a block from the canonical chain. A nil number means
// the latest block; negative numbers select the rpc.BlockNumber tags. With
// fullTx the block carries full transaction records, otherwise hashes only.
func (c *Client) BlockByNumber(ctx context.Context, number *big.Int, fullTx bool) (*Block, error) {
	const method = "eth_getBlockByNumber"
	var raw *rpcBlock
	if err := c.call(ctx, &raw, method, toBlockNumArg(number), fullTx); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ethereum.NotFound
	}
	b, err := raw.toBlock()
	if err != nil {
		return nil, &ResponseError{Method: method, Err: err}
	}
	return b, nil
}

// HeaderByNumber returns a block header from the canonical chain. If number
// is nil, the latest known header is returned.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	var raw *rpcHeader
	if err := c.call(ctx, &raw, "eth_getBlockByNumber", toBlockNumArg(number), false); err != nil {
		return nil, err
	}
	if raw == nil || raw.Number == nil {
		return nil, ethereum.NotFound
	}
	return raw.toGethHeader(), nil
}

// TransactionByHash returns the transaction with the given hash, or
// ethereum.NotFound if the endpoint does not know it.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*RPCTransaction, error) {
	var tx *RPCTransaction
	if err := c.call(ctx, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ethereum.NotFound
	}
	return tx, nil
}

// TransactionReceipt returns the receipt of a transaction by transaction hash.
// Note that the receipt is not available for pending transactions.
func (c *Client) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	var r *types.Receipt
	if err := c.call(ctx, &r, "eth_getTransactionReceipt", txHash); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ethereum.NotFound
	}
	return r, nil
}

// SuggestGasPrice returns the legacy gas price reported by eth_gasPrice.
func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	var hex hexutil.Big
	if err := c.call(ctx, &hex, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return (*big.Int)(&hex), nil
}

// SuggestGasTipCap returns the EIP-1559 priority fee reported by
// eth_maxPriorityFeePerGas.
func (c *Client) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	var hex hexutil.Big
	if err := c.call(ctx, &hex, "eth_maxPriorityFeePerGas"); err != nil {
		return nil, err
	}
	return (*big.Int)(&hex), nil
}

// FeeHistory returns base fees and gas usage for blockCount blocks ending at
// lastBlock (nil for latest), plus the requested reward percentiles.
func (c *Client) FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error) {
	if blockCount == 0 {
		return nil, &ValidationError{Field: "block count", Value: "0", Err: errZeroBlockCount}
	}
	if rewardPercentiles == nil {
		rewardPercentiles = []float64{}
	}
	var res rpcFeeHistory
	if err := c.call(ctx, &res, "eth_feeHistory", hexutil.Uint(blockCount), toBlockNumArg(lastBlock), rewardPercentiles); err != nil {
		return nil, err
	}
	return res.toFeeHistory(), nil
}

// EstimateGas estimates the gas needed to execute msg against the pending
// state.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var hex hexutil.Uint64
	if err := c.call(ctx, &hex, "eth_estimateGas", toCallArg(msg)); err != nil {
		return 0, err
	}
	return uint64(hex), nil
}

// NonceAt returns the account nonce of the given account.
// The block number can be nil, in which case the nonce is taken from the latest known block.
func (c *Client) NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error) {
	var result hexutil.Uint64
	if err := c.call(ctx, &result, "eth_getTransactionCount", account, toBlockNumArg(blockNumber)); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

// PendingNonceAt returns the account nonce of the given account in the pending state.
func (c *Client) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var result hexutil.Uint64
	if err := c.call(ctx, &result, "eth_getTransactionCount", account, "pending"); err != nil {
		return 0, err
	}
	return uint64(result), nil
}

// CallContract executes a message call against the state at blockNumber
// (nil for latest) without creating a transaction, and returns the raw
// return data.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var hex hexutil.Bytes
	if err := c.call(ctx, &hex, "eth_call", toCallArg(msg), toBlockNumArg(blockNumber)); err != nil {
		return nil, err
	}
	return hex, nil
}

// BalanceAt returns the wei balance of the given account.
// The block number can be nil, in which case the balance is taken from the latest known block.
func (c *Client) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	var result hexutil.Big
	if err := c.call(ctx, &result, "eth_getBalance", account, toBlockNumArg(blockNumber)); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

// CodeAt returns the contract code of the given account.
func (c *Client) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	var result hexutil.Bytes
	if err := c.call(ctx, &result, "eth_getCode", account, toBlockNumArg(blockNumber)); err != nil {
		return nil, err
	}
	return result, nil
}

// ChainID queries the endpoint's chain id. Transactions built by the client
// use Config.ChainID regardless of this value.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	if err := c.call(ctx, &result, "eth_chainId"); err != nil {
		return nil, err
	}
	return (*big.Int)(&result), nil
}

// SendRawTransaction broadcasts an already signed, encoded transaction and
// returns the hash reported by the endpoint.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	if len(raw) == 0 {
		return common.Hash{}, &ValidationError{Field: "raw transaction", Err: ErrEmptyTransaction}
	}
	var hash common.Hash
	if err := c.call(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

// SendTransaction encodes and broadcasts a signed transaction.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	data, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, &ValidationError{Field: "transaction", Err: err}
	}
	hash, err := c.SendRawTransaction(ctx, data)
	if err != nil {
		return common.Hash{}, err
	}
	if local := tx.Hash(); hash != local {
		c.log.Warn("Endpoint returned a different transaction hash", "local", local, "remote", hash)
	}
	return hash, nil
}

// toCallArg converts an ethereum.CallMsg to the eth_call / eth_estimateGas
// argument object. Call data goes under "data".
func toCallArg(msg ethereum.CallMsg) interface{} {
	arg := map[string]interface{}{
		"to": msg.To,
	}
	if msg.From != (common.Address{}) {
		arg["from"] = msg.From
	}
	if len(msg.Data) > 0 {
		arg["data"] = hexutil.Bytes(msg.Data)
	}
	if msg.Value != nil {
		arg["value"] = (*hexutil.Big)(msg.Value)
	}
	if msg.Gas != 0 {
		arg["gas"] = hexutil.Uint64(msg.Gas)
	}
	if msg.GasPrice != nil {
		arg["gasPrice"] = (*hexutil.Big)(msg.GasPrice)
	}
	if msg.GasFeeCap != nil {
		arg["maxFeePerGas"] = (*hexutil.Big)(msg.GasFeeCap)
	}
	if msg.GasTipCap != nil {
		arg["maxPriorityFeePerGas"] = (*hexutil.Big)(msg.GasTipCap)
	}
	return arg
}
