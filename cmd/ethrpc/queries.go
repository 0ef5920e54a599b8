package main

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"ethrpc/ethclient"
)

var (
	blockFlag = &cli.StringFlag{
		Name:  "block",
		Usage: "block number or tag",
		Value: "latest",
	}
	fullTxFlag = &cli.BoolFlag{
		Name:  "full",
		Usage: "include full transaction objects",
	}
	fromFlag = &cli.StringFlag{
		Name:  "from",
		Usage: "sender address",
	}
	toFlag = &cli.StringFlag{
		Name:  "to",
		Usage: "recipient address",
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "value in wei (decimal or 0x hex)",
	}
	dataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "hex call data",
	}
	blocksFlag = &cli.Uint64Flag{
		Name:  "blocks",
		Usage: "number of blocks",
		Value: 1,
	}
	percentilesFlag = &cli.StringFlag{
		Name:  "percentiles",
		Usage: "comma separated reward percentiles",
	}
)

// clientAction wraps a command body that needs a connected client.
func clientAction(fn func(*cli.Context, *ethclient.Client) (interface{}, error)) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		client, err := makeClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()

		result, err := fn(ctx, client)
		if err != nil {
			return err
		}
		return printJSON(ctx.App.Writer, result)
	}
}

func queryCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "block-number",
			Usage: "print the latest block number",
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				n, err := c.BlockNumber(ctx.Context)
				return hexutil.Uint64(n), err
			}),
		},
		{
			Name:      "block",
			Usage:     "print a block",
			ArgsUsage: "<number|tag>",
			Flags:     []cli.Flag{fullTxFlag},
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				number, err := blockArg(ctx.Args().First())
				if err != nil {
					return nil, err
				}
				block, err := c.BlockByNumber(ctx.Context, number, ctx.Bool(fullTxFlag.Name))
				if err != nil {
					return nil, err
				}
				if ctx.Bool(fullTxFlag.Name) {
					return struct {
						Header       interface{}                 `json:"header"`
						Hash         common.Hash                 `json:"hash"`
						Transactions []*ethclient.RPCTransaction `json:"transactions"`
					}{block.Header, block.Hash, block.Transactions}, nil
				}
				return struct {
					Header       interface{}   `json:"header"`
					Hash         common.Hash   `json:"hash"`
					Transactions []common.Hash `json:"transactions"`
				}{block.Header, block.Hash, block.TxHashes}, nil
			}),
		},
		{
			Name:      "tx",
			Usage:     "print a transaction",
			ArgsUsage: "<hash>",
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				hash, err := hashArg(ctx.Args().First())
				if err != nil {
					return nil, err
				}
				return c.TransactionByHash(ctx.Context, hash)
			}),
		},
		{
			Name:      "receipt",
			Usage:     "print a transaction receipt",
			ArgsUsage: "<hash>",
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				hash, err := hashArg(ctx.Args().First())
				if err != nil {
					return nil, err
				}
				return c.TransactionReceipt(ctx.Context, hash)
			}),
		},
		{
			Name:  "gas-price",
			Usage: "print the legacy gas price suggestion",
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				return bigResult(c.SuggestGasPrice(ctx.Context))
			}),
		},
		{
			Name:  "priority-fee",
			Usage: "print the max priority fee suggestion",
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				return bigResult(c.SuggestGasTipCap(ctx.Context))
			}),
		},
		{
			Name:  "max-fee",
			Usage: "print the recommended max fee (2 * base fee + priority fee)",
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				return bigResult(c.RecommendedMaxFee(ctx.Context))
			}),
		},
		{
			Name:  "fee-history",
			Usage: "print eth_feeHistory",
			Flags: []cli.Flag{blocksFlag, blockFlag, percentilesFlag},
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				last, err := blockArg(ctx.String(blockFlag.Name))
				if err != nil {
					return nil, err
				}
				percentiles, err := parsePercentiles(ctx.String(percentilesFlag.Name))
				if err != nil {
					return nil, err
				}
				return c.FeeHistory(ctx.Context, ctx.Uint64(blocksFlag.Name), last, percentiles)
			}),
		},
		{
			Name:      "balance",
			Usage:     "print an account balance in wei",
			ArgsUsage: "<address>",
			Flags:     []cli.Flag{blockFlag},
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				addr, block, err := accountArgs(ctx)
				if err != nil {
					return nil, err
				}
				return bigResult(c.BalanceAt(ctx.Context, addr, block))
			}),
		},
		{
			Name:      "nonce",
			Usage:     "print an account nonce",
			ArgsUsage: "<address>",
			Flags:     []cli.Flag{blockFlag},
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				addr, block, err := accountArgs(ctx)
				if err != nil {
					return nil, err
				}
				n, err := c.NonceAt(ctx.Context, addr, block)
				return hexutil.Uint64(n), err
			}),
		},
		{
			Name:  "estimate-gas",
			Usage: "estimate the gas of a call",
			Flags: []cli.Flag{fromFlag, toFlag, valueFlag, dataFlag},
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				msg, err := callMsg(ctx)
				if err != nil {
					return nil, err
				}
				gas, err := c.EstimateGas(ctx.Context, msg)
				return hexutil.Uint64(gas), err
			}),
		},
		{
			Name:  "call",
			Usage: "execute a read-only call",
			Flags: []cli.Flag{fromFlag, toFlag, valueFlag, dataFlag, blockFlag},
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				msg, err := callMsg(ctx)
				if err != nil {
					return nil, err
				}
				block, err := blockArg(ctx.String(blockFlag.Name))
				if err != nil {
					return nil, err
				}
				out, err := c.CallContract(ctx.Context, msg, block)
				return hexutil.Bytes(out), err
			}),
		},
		{
			Name:      "send-raw",
			Usage:     "broadcast a signed transaction",
			ArgsUsage: "<hex>",
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				raw, err := hexutil.Decode(ctx.Args().First())
				if err != nil {
					return nil, fmt.Errorf("invalid raw transaction: %w", err)
				}
				return c.SendRawTransaction(ctx.Context, raw)
			}),
		},
		{
			Name:  "chain-id",
			Usage: "print the endpoint's chain id",
			Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
				return bigResult(c.ChainID(ctx.Context))
			}),
		},
	}
}

func bigResult(n *big.Int, err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return (*hexutil.Big)(n), nil
}

func blockArg(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return ethclient.ParseBlockNumber(s)
}

func hashArg(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid transaction hash %q", s)
	}
	return common.BytesToHash(b), nil
}

func addressArg(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func accountArgs(ctx *cli.Context) (common.Address, *big.Int, error) {
	addr, err := addressArg(ctx.Args().First())
	if err != nil {
		return common.Address{}, nil, err
	}
	block, err := blockArg(ctx.String(blockFlag.Name))
	return addr, block, err
}

func callMsg(ctx *cli.Context) (ethereum.CallMsg, error) {
	var msg ethereum.CallMsg
	if !ctx.IsSet(toFlag.Name) {
		return msg, errors.New("--to is required")
	}
	to, err := addressArg(ctx.String(toFlag.Name))
	if err != nil {
		return msg, err
	}
	msg.To = &to
	if s := ctx.String(fromFlag.Name); s != "" {
		if msg.From, err = addressArg(s); err != nil {
			return msg, err
		}
	}
	if s := ctx.String(valueFlag.Name); s != "" {
		if msg.Value, err = ethclient.ParseQuantity(s); err != nil {
			return msg, err
		}
	}
	if s := ctx.String(dataFlag.Name); s != "" {
		if msg.Data, err = hexutil.Decode(s); err != nil {
			return msg, fmt.Errorf("invalid call data: %w", err)
		}
	}
	return msg, nil
}

func parsePercentiles(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		p, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || p < 0 || p > 100 {
			return nil, fmt.Errorf("invalid percentile %q", part)
		}
		out = append(out, p)
	}
	return out, nil
}
