package ethclient

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// rpcHeader is the header part of an eth_getBlockByNumber result. Unlike
// types.Header's own decoder it treats every field as optional; absent
// fields stay zero in toGethHeader.
type rpcHeader struct {
	ParentHash  *common.Hash      `json:"parentHash"`
	UncleHash   *common.Hash      `json:"sha3Uncles"`
	Coinbase    *common.Address   `json:"miner"`
	Root        *common.Hash      `json:"stateRoot"`
	TxHash      *common.Hash      `json:"transactionsRoot"`
	ReceiptHash *common.Hash      `json:"receiptsRoot"`
	Bloom       *types.Bloom      `json:"logsBloom"`
	Difficulty  *hexutil.Big      `json:"difficulty"`
	Number      *hexutil.Big      `json:"number"`
	GasLimit    *hexutil.Uint64   `json:"gasLimit"`
	GasUsed     *hexutil.Uint64   `json:"gasUsed"`
	Time        *hexutil.Uint64   `json:"timestamp"`
	Extra       *hexutil.Bytes    `json:"extraData"`
	MixDigest   *common.Hash      `json:"mixHash"`
	Nonce       *types.BlockNonce `json:"nonce"`

	BaseFee          *hexutil.Big    `json:"baseFeePerGas"`
	WithdrawalsHash  *common.Hash    `json:"withdrawalsRoot"`
	BlobGasUsed      *hexutil.Uint64 `json:"blobGasUsed"`
	ExcessBlobGas    *hexutil.Uint64 `json:"excessBlobGas"`
	ParentBeaconRoot *common.Hash    `json:"parentBeaconBlockRoot"`
	RequestsHash     *common.Hash    `json:"requestsHash"`

	Hash *common.Hash `json:"hash"`
}

func (h *rpcHeader) toGethHeader() *types.Header {
	return &types.Header{
		ParentHash:       orZero(h.ParentHash),
		UncleHash:        orZero(h.UncleHash),
		Coinbase:         orZero(h.Coinbase),
		Bloom:            orZero(h.Bloom),
		Nonce:            orZero(h.Nonce),
		Root:             orZero(h.Root),
		TxHash:           orZero(h.TxHash),
		ReceiptHash:      orZero(h.ReceiptHash),
		MixDigest:        orZero(h.MixDigest),
		Difficulty:       (*big.Int)(h.Difficulty),
		Number:           (*big.Int)(h.Number),
		BaseFee:          (*big.Int)(h.BaseFee),
		GasLimit:         uint64(orZero(h.GasLimit)),
		GasUsed:          uint64(orZero(h.GasUsed)),
		Time:             uint64(orZero(h.Time)),
		Extra:            orZero(h.Extra),
		WithdrawalsHash:  h.WithdrawalsHash,
		BlobGasUsed:      (*uint64)(h.BlobGasUsed),
		ExcessBlobGas:    (*uint64)(h.ExcessBlobGas),
		ParentBeaconRoot: h.ParentBeaconRoot,
		RequestsHash:     h.RequestsHash,
	}
}

func orZero[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// rpcBlock is the eth_getBlockByNumber result. Each transactions entry is a
// hash string or a full transaction object, depending on the request.
type rpcBlock struct {
	rpcHeader
	Transactions []json.RawMessage `json:"transactions"`
	Uncles       []common.Hash     `json:"uncles"`
}

// Block is a block as returned by eth_getBlockByNumber.
//
// Transactions is filled when the block was requested with full
// transactions; otherwise only TxHashes is. Hash is the hash reported by the
// endpoint, not one recomputed from Header.
type Block struct {
	Header       *types.Header
	Hash         common.Hash
	TxHashes     []common.Hash
	Transactions []*RPCTransaction
	Uncles       []common.Hash
}

// Number returns the block height, or nil if the endpoint omitted it.
func (b *Block) Number() *big.Int {
	return b.Header.Number
}

func (raw *rpcBlock) toBlock() (*Block, error) {
	b := &Block{
		Header: raw.toGethHeader(),
		Uncles: raw.Uncles,
	}
	if raw.Hash != nil {
		b.Hash = *raw.Hash
	}
	for i, item := range raw.Transactions {
		if len(item) > 0 && item[0] == '"' {
			var h common.Hash
			if err := json.Unmarshal(item, &h); err != nil {
				return nil, fmt.Errorf("transaction %d: %w", i, err)
			}
			b.TxHashes = append(b.TxHashes, h)
			continue
		}
		var tx RPCTransaction
		if err := json.Unmarshal(item, &tx); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		b.Transactions = append(b.Transactions, &tx)
		b.TxHashes = append(b.TxHashes, tx.Hash)
	}
	return b, nil
}

// RPCTransaction is a transaction record as returned by
// eth_getTransactionByHash and by eth_getBlockByNumber with full
// transactions. Fee fields are present according to the transaction type:
// GasPrice for every type, GasFeeCap and GasTipCap for EIP-1559 and later.
type RPCTransaction struct {
	BlockHash        *common.Hash    `json:"blockHash"`
	BlockNumber      *hexutil.Big    `json:"blockNumber"`
	From             common.Address  `json:"from"`
	Gas              hexutil.Uint64  `json:"gas"`
	GasPrice         *hexutil.Big    `json:"gasPrice"`
	GasFeeCap        *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	GasTipCap        *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Hash             common.Hash     `json:"hash"`
	Input            hexutil.Bytes   `json:"input"`
	Nonce            hexutil.Uint64  `json:"nonce"`
	To               *common.Address `json:"to"`
	TransactionIndex *hexutil.Uint64 `json:"transactionIndex"`
	Value            *hexutil.Big    `json:"value"`
	Type             hexutil.Uint64  `json:"type"`
	ChainID          *hexutil.Big    `json:"chainId,omitempty"`
	V                *hexutil.Big    `json:"v"`
	R                *hexutil.Big    `json:"r"`
	S                *hexutil.Big    `json:"s"`
}

// Pending reports whether the transaction is not yet in a block.
func (tx *RPCTransaction) Pending() bool {
	return tx.BlockHash == nil
}

type rpcFeeHistory struct {
	OldestBlock  *hexutil.Big     `json:"oldestBlock"`
	Reward       [][]*hexutil.Big `json:"reward,omitempty"`
	BaseFee      []*hexutil.Big   `json:"baseFeePerGas,omitempty"`
	GasUsedRatio []float64        `json:"gasUsedRatio"`
}

func (h *rpcFeeHistory) toFeeHistory() *ethereum.FeeHistory {
	out := &ethereum.FeeHistory{
		OldestBlock:  (*big.Int)(h.OldestBlock),
		BaseFee:      make([]*big.Int, len(h.BaseFee)),
		GasUsedRatio: h.GasUsedRatio,
	}
	for i, b := range h.BaseFee {
		out.BaseFee[i] = (*big.Int)(b)
	}
	if len(h.Reward) > 0 {
		out.Reward = make([][]*big.Int, len(h.Reward))
		for i, r := range h.Reward {
			out.Reward[i] = make([]*big.Int, len(r))
			for j, v := range r {
				out.Reward[i][j] = (*big.Int)(v)
			}
		}
	}
	return out
}
