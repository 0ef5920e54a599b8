// Package ethclient provides a typed client for Ethereum-compatible JSON-RPC
// endpoints over HTTP(S), and builds, signs and broadcasts transfers with a
// caller-supplied signer.
//
// # Configuration
//
// A Client is built once from a Config and never changes afterwards:
//
//	cfg := ethclient.DefaultConfig
//	cfg.Endpoint = "https://sepolia.example.org/v3/KEY"
//	cfg.Timeout = 10 * time.Second
//
//	client, err := ethclient.NewClient(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
// Config can also be read from YAML with LoadConfig:
//
//	endpoint: https://sepolia.example.org/v3/KEY
//	chain_id: 11155111
//	proxy: http://127.0.0.1:8080
//	timeout: 15s
//	user_agent: my-service/2.1
//
// # Queries
//
// Query methods map one-to-one onto eth_* methods: BlockNumber,
// BlockByNumber, TransactionByHash, SuggestGasPrice, FeeHistory,
// SuggestGasTipCap, EstimateGas, NonceAt, CallContract, BalanceAt and a few
// more. RecommendedMaxFee derives an EIP-1559 max fee as
// 2 * latest base fee + priority fee.
//
// Integers travel as JSON-RPC quantities ("0x"-prefixed hex, no leading
// zeros). EncodeQuantity, DecodeQuantity and ParseQuantity expose the same
// conversions to callers.
//
// # Transfers
//
// SendTransfer fills in whatever the caller left unset (gas price, or
// priority fee and max fee, and the sender nonce), merges TxOverrides on
// top, asks the Signer for the raw signed transaction and broadcasts it:
//
//	hash, err := client.SendTransfer(ctx, signer, ethclient.Transfer{
//	    To:       to,
//	    Amount:   big.NewInt(1e16),
//	    GasLimit: 21000,
//	    Fees:     ethclient.DynamicFees,
//	})
//
// Nonces are read, not reserved. Concurrent transfers from one sender must be
// serialized by the caller, or carry an explicit Overrides.Nonce.
//
// # Errors
//
// Failures are one of:
//   - *ValidationError: bad input, reported before any request is sent.
//   - *TransportError: the request did not complete (network, timeout,
//     cancelled context).
//   - *RPCError: the endpoint answered with a JSON-RPC error object or a
//     non-2xx HTTP status.
//   - *ResponseError: the endpoint answered but the result did not decode.
//
// Lookups of unknown blocks, transactions and receipts return
// ethereum.NotFound. Nothing is retried.
package ethclient
