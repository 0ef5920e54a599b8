package ethclient

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FeeModel selects how a transaction pays for gas.
type FeeModel int

const (
	// LegacyFees pays a single gas price.
	LegacyFees FeeModel = iota
	// DynamicFees pays per EIP-1559: a max priority fee and a max fee.
	DynamicFees
)

func (m FeeModel) String() string {
	switch m {
	case LegacyFees:
		return "legacy"
	case DynamicFees:
		return "eip1559"
	default:
		return "unknown"
	}
}

// TxRequest is an unsigned transaction with every field resolved. Exactly
// one fee model is populated: GasPrice, or GasTipCap together with GasFeeCap.
type TxRequest struct {
	From      common.Address
	To        *common.Address // nil means contract creation
	Value     *big.Int
	Gas       uint64
	GasPrice  *big.Int
	GasTipCap *big.Int
	GasFeeCap *big.Int
	Nonce     uint64
	ChainID   *big.Int
	Data      []byte
}

// FeeModel returns the fee model the populated fields describe.
func (r *TxRequest) FeeModel() FeeModel {
	if r.GasPrice != nil {
		return LegacyFees
	}
	return DynamicFees
}

// Validate checks the request invariants.
func (r *TxRequest) Validate() error {
	legacy := r.GasPrice != nil
	dynamic := r.GasTipCap != nil || r.GasFeeCap != nil
	switch {
	case legacy && dynamic:
		return &ValidationError{Field: "fees", Err: ErrMixedFeeModels}
	case !legacy && !dynamic:
		return &ValidationError{Field: "fees", Err: ErrMissingFees}
	case dynamic && (r.GasTipCap == nil || r.GasFeeCap == nil):
		return &ValidationError{Field: "fees", Err: ErrIncompleteDynamicFees}
	case dynamic && r.GasTipCap.Cmp(r.GasFeeCap) > 0:
		return &ValidationError{Field: "fees", Err: ErrTipAboveFeeCap}
	}
	if r.Gas == 0 {
		return &ValidationError{Field: "gas limit", Value: "0", Err: ErrZeroGasLimit}
	}
	if r.Value != nil && r.Value.Sign() < 0 {
		return &ValidationError{Field: "value", Value: r.Value.String(), Err: ErrNegativeValue}
	}
	if r.ChainID == nil || r.ChainID.Sign() <= 0 {
		return &ValidationError{Field: "chain id", Err: ErrInvalidChainID}
	}
	return nil
}

// Transaction returns the unsigned go-ethereum transaction for r: a
// LegacyTx when GasPrice is set, a DynamicFeeTx otherwise.
func (r *TxRequest) Transaction() *types.Transaction {
	value := new(big.Int)
	if r.Value != nil {
		value.Set(r.Value)
	}
	data := common.CopyBytes(r.Data)

	if r.FeeModel() == LegacyFees {
		return types.NewTx(&types.LegacyTx{
			Nonce:    r.Nonce,
			GasPrice: new(big.Int).Set(r.GasPrice),
			Gas:      r.Gas,
			To:       r.To,
			Value:    value,
			Data:     data,
		})
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   new(big.Int).Set(r.ChainID),
		Nonce:     r.Nonce,
		GasTipCap: new(big.Int).Set(r.GasTipCap),
		GasFeeCap: new(big.Int).Set(r.GasFeeCap),
		Gas:       r.Gas,
		To:        r.To,
		Value:     value,
		Data:      data,
	})
}

// TxOverrides are caller-supplied transaction fields that replace the
// values a transfer would otherwise compute. Nil fields are left alone; Data
// is only applied when non-nil, so an empty non-nil slice clears it.
type TxOverrides struct {
	To        *common.Address
	Value     *big.Int
	Gas       *uint64
	GasPrice  *big.Int
	GasTipCap *big.Int
	GasFeeCap *big.Int
	Nonce     *uint64
	Data      []byte
}

// apply merges o onto r; set fields in o win.
func (o *TxOverrides) apply(r *TxRequest) {
	if o.To != nil {
		to := *o.To
		r.To = &to
	}
	if o.Value != nil {
		r.Value = new(big.Int).Set(o.Value)
	}
	if o.Gas != nil {
		r.Gas = *o.Gas
	}
	if o.GasPrice != nil {
		r.GasPrice = new(big.Int).Set(o.GasPrice)
	}
	if o.GasTipCap != nil {
		r.GasTipCap = new(big.Int).Set(o.GasTipCap)
	}
	if o.GasFeeCap != nil {
		r.GasFeeCap = new(big.Int).Set(o.GasFeeCap)
	}
	if o.Nonce != nil {
		r.Nonce = *o.Nonce
	}
	if o.Data != nil {
		r.Data = common.CopyBytes(o.Data)
	}
}
