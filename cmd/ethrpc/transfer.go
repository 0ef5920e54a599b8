package main

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"

	"ethrpc/ethclient"
	"ethrpc/wallet"
)

var (
	keyFlag = &cli.StringFlag{
		Name:    "key",
		Usage:   "hex private key of the sender",
		EnvVars: []string{"ETHRPC_PRIVATE_KEY"},
	}
	amountFlag = &cli.StringFlag{
		Name:  "amount",
		Usage: "amount in wei (decimal or 0x hex)",
		Value: "0",
	}
	gasFlag = &cli.Uint64Flag{
		Name:  "gas",
		Usage: "gas limit",
		Value: 21000,
	}
	legacyFlag = &cli.BoolFlag{
		Name:  "legacy",
		Usage: "pay a single gas price instead of EIP-1559 fees",
	}
	gasPriceFlag = &cli.StringFlag{
		Name:  "gas-price",
		Usage: "gas price in wei (legacy only, fetched when unset)",
	}
	tipFlag = &cli.StringFlag{
		Name:  "priority-fee",
		Usage: "max priority fee in wei (fetched when unset)",
	}
	maxFeeFlag = &cli.StringFlag{
		Name:  "max-fee",
		Usage: "max fee in wei (2 * base fee + priority fee when unset)",
	}
	nonceFlag = &cli.Uint64Flag{
		Name:  "nonce",
		Usage: "sender nonce (fetched when unset)",
	}
	seedFlag = &cli.StringFlag{
		Name:     "seed",
		Usage:    "seed string",
		Required: true,
	}
)

var transferCommand = &cli.Command{
	Name:  "transfer",
	Usage: "sign and send a value transfer",
	Flags: []cli.Flag{
		keyFlag,
		toFlag, amountFlag, gasFlag, dataFlag,
		legacyFlag, gasPriceFlag, tipFlag, maxFeeFlag, nonceFlag,
	},
	Action: clientAction(func(ctx *cli.Context, c *ethclient.Client) (interface{}, error) {
		signer, err := makeSigner(ctx)
		if err != nil {
			return nil, err
		}
		t, err := makeTransfer(ctx)
		if err != nil {
			return nil, err
		}
		return c.SendTransfer(ctx.Context, signer, t)
	}),
}

var keygenCommand = &cli.Command{
	Name:  "keygen",
	Usage: "derive a test key from keccak256(seed)",
	Flags: []cli.Flag{seedFlag},
	Action: func(ctx *cli.Context) error {
		key, err := wallet.DeterministicKey(ctx.String(seedFlag.Name))
		if err != nil {
			return err
		}
		return printJSON(ctx.App.Writer, map[string]interface{}{
			"seed":    ctx.String(seedFlag.Name),
			"key":     hexutil.Bytes(crypto.FromECDSA(key)),
			"address": crypto.PubkeyToAddress(key.PublicKey),
		})
	},
}

func makeSigner(ctx *cli.Context) (ethclient.Signer, error) {
	if ctx.String(keyFlag.Name) == "" {
		return nil, errors.New("--key or ETHRPC_PRIVATE_KEY is required")
	}
	return wallet.NewKeySignerFromHex(ctx.String(keyFlag.Name))
}

func makeTransfer(ctx *cli.Context) (ethclient.Transfer, error) {
	t := ethclient.Transfer{
		GasLimit: ctx.Uint64(gasFlag.Name),
		Fees:     ethclient.DynamicFees,
	}
	if ctx.Bool(legacyFlag.Name) {
		t.Fees = ethclient.LegacyFees
	}

	to, err := addressArg(ctx.String(toFlag.Name))
	if err != nil {
		return t, err
	}
	t.To = to
	if t.Amount, err = ethclient.ParseQuantity(ctx.String(amountFlag.Name)); err != nil {
		return t, err
	}

	for _, f := range []struct {
		flag *cli.StringFlag
		dst  **big.Int
	}{
		{gasPriceFlag, &t.GasPrice},
		{tipFlag, &t.GasTipCap},
		{maxFeeFlag, &t.GasFeeCap},
	} {
		if !ctx.IsSet(f.flag.Name) {
			continue
		}
		if *f.dst, err = ethclient.ParseQuantity(ctx.String(f.flag.Name)); err != nil {
			return t, fmt.Errorf("--%s: %w", f.flag.Name, err)
		}
	}

	if ctx.IsSet(nonceFlag.Name) {
		nonce := ctx.Uint64(nonceFlag.Name)
		t.Overrides.Nonce = &nonce
	}
	if s := ctx.String(dataFlag.Name); s != "" {
		if t.Overrides.Data, err = hexutil.Decode(s); err != nil {
			return t, fmt.Errorf("invalid data: %w", err)
		}
	}
	return t, nil
}
