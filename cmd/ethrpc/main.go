// Command ethrpc queries an Ethereum JSON-RPC endpoint and sends transfers.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"ethrpc/ethclient"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "YAML config file",
		EnvVars: []string{"ETHRPC_CONFIG"},
	}
	rpcURLFlag = &cli.StringFlag{
		Name:    "rpc-url",
		Usage:   "JSON-RPC endpoint URL",
		EnvVars: []string{"ETHRPC_URL"},
	}
	chainIDFlag = &cli.Uint64Flag{
		Name:    "chain-id",
		Usage:   "chain id stamped on transactions",
		EnvVars: []string{"ETHRPC_CHAIN_ID"},
	}
	proxyFlag = &cli.StringFlag{
		Name:    "proxy",
		Usage:   "outbound proxy URL (http, https or socks5)",
		EnvVars: []string{"ETHRPC_PROXY"},
	}
	timeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		Usage:   "per-request timeout",
		EnvVars: []string{"ETHRPC_TIMEOUT"},
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "log level: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 2,
	}
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		exit(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "ethrpc",
		Usage: "Ethereum JSON-RPC client",
		Flags: []cli.Flag{
			configFlag,
			rpcURLFlag,
			chainIDFlag,
			proxyFlag,
			timeoutFlag,
			verbosityFlag,
		},
		Before: setupLogging,
		Commands: append(queryCommands(), []*cli.Command{
			transferCommand,
			keygenCommand,
		}...),
	}
}

func setupLogging(ctx *cli.Context) error {
	lvl := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)))
	return nil
}

// loadConfig layers flags over the config file over DefaultConfig.
func loadConfig(ctx *cli.Context) (ethclient.Config, error) {
	cfg := ethclient.DefaultConfig
	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = ethclient.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(rpcURLFlag.Name) {
		cfg.Endpoint = ctx.String(rpcURLFlag.Name)
	}
	if ctx.IsSet(chainIDFlag.Name) {
		cfg.ChainID = ctx.Uint64(chainIDFlag.Name)
	}
	if ctx.IsSet(proxyFlag.Name) {
		cfg.Proxy = ctx.String(proxyFlag.Name)
	}
	if ctx.IsSet(timeoutFlag.Name) {
		cfg.Timeout = ctx.Duration(timeoutFlag.Name)
	}
	return cfg, cfg.Validate()
}

func makeClient(ctx *cli.Context) (*ethclient.Client, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(ctx.Context, cfg)
}

func printJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func exit(err interface{}) {
	if err == nil {
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, "Fatal:", err)
	os.Exit(1)
}
