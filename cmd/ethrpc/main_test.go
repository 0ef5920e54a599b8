package main

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"ethrpc/ethclient"
)

// runWith runs action under an app carrying the global and transfer flags.
func runWith(t *testing.T, args []string, action cli.ActionFunc) {
	t.Helper()
	app := &cli.App{
		Name:   "ethrpc",
		Flags:  []cli.Flag{configFlag, rpcURLFlag, chainIDFlag, proxyFlag, timeoutFlag, verbosityFlag},
		Writer: os.Stdout,
		Commands: []*cli.Command{{
			Name:   "test",
			Flags:  transferCommand.Flags,
			Action: action,
		}},
	}
	require.NoError(t, app.Run(append([]string{"ethrpc"}, args...)))
}

func TestLoadConfigFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ethrpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: https://file.example\nchain_id: 5\ntimeout: 3s\n"), 0o600))

	var cfg ethclient.Config
	runWith(t, []string{"--config", path, "--chain-id", "1", "--proxy", "socks5://127.0.0.1:9050", "test"}, func(ctx *cli.Context) error {
		var err error
		cfg, err = loadConfig(ctx)
		return err
	})

	assert.Equal(t, "https://file.example", cfg.Endpoint)
	assert.Equal(t, uint64(1), cfg.ChainID)
	assert.Equal(t, "socks5://127.0.0.1:9050", cfg.Proxy)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestMakeTransfer(t *testing.T) {
	var tr ethclient.Transfer
	runWith(t, []string{"test",
		"--to", "0x2222222222222222222222222222222222222222",
		"--amount", "0x10",
		"--legacy",
		"--gas-price", "7",
		"--nonce", "3",
		"--data", "0xabcd",
	}, func(ctx *cli.Context) error {
		var err error
		tr, err = makeTransfer(ctx)
		return err
	})

	assert.Equal(t, ethclient.LegacyFees, tr.Fees)
	assert.Equal(t, big.NewInt(16), tr.Amount)
	assert.Equal(t, big.NewInt(7), tr.GasPrice)
	assert.Nil(t, tr.GasTipCap)
	assert.Equal(t, uint64(21000), tr.GasLimit)
	require.NotNil(t, tr.Overrides.Nonce)
	assert.Equal(t, uint64(3), *tr.Overrides.Nonce)
	assert.Equal(t, []byte{0xab, 0xcd}, tr.Overrides.Data)
}

func TestMakeTransfer_DynamicDefaults(t *testing.T) {
	var tr ethclient.Transfer
	runWith(t, []string{"test", "--to", "0x2222222222222222222222222222222222222222"}, func(ctx *cli.Context) error {
		var err error
		tr, err = makeTransfer(ctx)
		return err
	})

	assert.Equal(t, ethclient.DynamicFees, tr.Fees)
	assert.Equal(t, 0, tr.Amount.Sign())
	assert.Nil(t, tr.GasFeeCap)
	assert.Nil(t, tr.Overrides.Nonce)
	assert.Nil(t, tr.Overrides.Data)
}

func TestParsePercentiles(t *testing.T) {
	p, err := parsePercentiles("10, 50,90")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 50, 90}, p)

	p, err = parsePercentiles("")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = parsePercentiles("101")
	assert.Error(t, err)
}

func TestHashArg(t *testing.T) {
	_, err := hashArg("0x1234")
	assert.Error(t, err)

	h, err := hashArg("0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b")
	require.NoError(t, err)
	assert.Equal(t, byte(0x88), h[0])
}

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

// testNode answers the JSON-RPC calls the commands make and records them.
type testNode struct {
	mu      sync.Mutex
	methods []string
	sent    []*types.Transaction
}

func newTestNode(t *testing.T) (*testNode, *httptest.Server) {
	n := &testNode{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		n.mu.Lock()
		n.methods = append(n.methods, req.Method)
		n.mu.Unlock()

		var result interface{}
		switch req.Method {
		case "eth_blockNumber":
			result = "0x2a"
		case "eth_gasPrice":
			result = "0x3"
		case "eth_maxPriorityFeePerGas":
			result = "0x2"
		case "eth_feeHistory":
			result = map[string]interface{}{
				"oldestBlock":   "0x2a",
				"baseFeePerGas": []string{"0xa", "0xa"},
				"gasUsedRatio":  []float64{0.5},
			}
		case "eth_getTransactionCount":
			result = "0x4"
		case "eth_sendRawTransaction":
			var raw hexutil.Bytes
			tx := new(types.Transaction)
			if json.Unmarshal(req.Params[0], &raw) == nil && tx.UnmarshalBinary(raw) == nil {
				n.mu.Lock()
				n.sent = append(n.sent, tx)
				n.mu.Unlock()
				result = tx.Hash()
			}
		default:
			t.Errorf("unexpected method %s", req.Method)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(server.Close)
	return n, server
}

func (n *testNode) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.methods...)
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(append([]string{"ethrpc", "--verbosity", "0"}, args...))
	return out.String(), err
}

func TestBlockNumberCommand(t *testing.T) {
	node, server := newTestNode(t)

	out, err := runApp(t, "--rpc-url", server.URL, "block-number")
	require.NoError(t, err)
	assert.JSONEq(t, `"0x2a"`, out)
	assert.Equal(t, []string{"eth_blockNumber"}, node.calls())
}

func TestTransferCommand(t *testing.T) {
	node, server := newTestNode(t)

	out, err := runApp(t, "--rpc-url", server.URL, "transfer",
		"--key", testKey,
		"--to", "0x2222222222222222222222222222222222222222",
		"--amount", "5",
	)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"eth_maxPriorityFeePerGas",
		"eth_feeHistory",
		"eth_getTransactionCount",
		"eth_sendRawTransaction",
	}, node.calls())

	node.mu.Lock()
	defer node.mu.Unlock()
	require.Len(t, node.sent, 1)
	tx := node.sent[0]
	assert.JSONEq(t, `"`+tx.Hash().Hex()+`"`, out)
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, big.NewInt(22), tx.GasFeeCap())
	assert.Equal(t, uint64(4), tx.Nonce())

	sender, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"), sender)
}

func TestTransferCommand_FeeFlagOfOtherModel(t *testing.T) {
	tests := [][]string{
		{"--gas-price", "7"},
		{"--legacy", "--priority-fee", "1"},
		{"--legacy", "--max-fee", "9"},
	}

	for _, flags := range tests {
		node, server := newTestNode(t)
		args := append([]string{"--rpc-url", server.URL, "transfer",
			"--key", testKey,
			"--to", "0x2222222222222222222222222222222222222222",
		}, flags...)

		_, err := runApp(t, args...)
		assert.ErrorIs(t, err, ethclient.ErrMixedFeeModels, "flags %v", flags)
		assert.Empty(t, node.calls(), "flags %v", flags)
	}
}
