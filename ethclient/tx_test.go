package ethclient

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRecipient = common.HexToAddress("0x2222222222222222222222222222222222222222")

func legacyRequest() *TxRequest {
	to := testRecipient
	return &TxRequest{
		From:     common.HexToAddress("0x1111111111111111111111111111111111111111"),
		To:       &to,
		Value:    big.NewInt(1000),
		Gas:      21000,
		GasPrice: big.NewInt(3),
		Nonce:    5,
		ChainID:  big.NewInt(11155111),
	}
}

func dynamicRequest() *TxRequest {
	r := legacyRequest()
	r.GasPrice = nil
	r.GasTipCap = big.NewInt(2)
	r.GasFeeCap = big.NewInt(22)
	return r
}

func TestTxRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		request func() *TxRequest
		wantErr error
	}{
		{"legacy", legacyRequest, nil},
		{"dynamic", dynamicRequest, nil},
		{"tip equals cap", func() *TxRequest {
			r := dynamicRequest()
			r.GasFeeCap = big.NewInt(2)
			return r
		}, nil},
		{"contract creation", func() *TxRequest {
			r := legacyRequest()
			r.To = nil
			return r
		}, nil},
		{"both fee models", func() *TxRequest {
			r := dynamicRequest()
			r.GasPrice = big.NewInt(3)
			return r
		}, ErrMixedFeeModels},
		{"gas price with only tip", func() *TxRequest {
			r := legacyRequest()
			r.GasTipCap = big.NewInt(1)
			return r
		}, ErrMixedFeeModels},
		{"no fees", func() *TxRequest {
			r := legacyRequest()
			r.GasPrice = nil
			return r
		}, ErrMissingFees},
		{"tip without cap", func() *TxRequest {
			r := dynamicRequest()
			r.GasFeeCap = nil
			return r
		}, ErrIncompleteDynamicFees},
		{"tip above cap", func() *TxRequest {
			r := dynamicRequest()
			r.GasTipCap = big.NewInt(23)
			return r
		}, ErrTipAboveFeeCap},
		{"zero gas", func() *TxRequest {
			r := legacyRequest()
			r.Gas = 0
			return r
		}, ErrZeroGasLimit},
		{"negative value", func() *TxRequest {
			r := legacyRequest()
			r.Value = big.NewInt(-1)
			return r
		}, ErrNegativeValue},
		{"missing chain id", func() *TxRequest {
			r := legacyRequest()
			r.ChainID = nil
			return r
		}, ErrInvalidChainID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request().Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTxRequestTransaction_Legacy(t *testing.T) {
	r := legacyRequest()
	r.Data = []byte{0xca, 0xfe}
	tx := r.Transaction()

	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
	assert.Equal(t, LegacyFees, r.FeeModel())
	assert.Equal(t, big.NewInt(3), tx.GasPrice())
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, big.NewInt(1000), tx.Value())
	assert.Equal(t, testRecipient, *tx.To())
	assert.Equal(t, []byte{0xca, 0xfe}, tx.Data())

	// the transaction owns its copies
	r.GasPrice.SetInt64(99)
	r.Data[0] = 0
	assert.Equal(t, big.NewInt(3), tx.GasPrice())
	assert.Equal(t, byte(0xca), tx.Data()[0])
}

func TestTxRequestTransaction_Dynamic(t *testing.T) {
	r := dynamicRequest()
	r.Value = nil
	tx := r.Transaction()

	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, DynamicFees, r.FeeModel())
	assert.Equal(t, big.NewInt(2), tx.GasTipCap())
	assert.Equal(t, big.NewInt(22), tx.GasFeeCap())
	assert.Equal(t, big.NewInt(11155111), tx.ChainId())
	assert.Equal(t, 0, tx.Value().Sign())
}

func TestTxOverridesApply(t *testing.T) {
	gas := uint64(50000)
	nonce := uint64(9)
	other := common.HexToAddress("0x3333333333333333333333333333333333333333")

	r := dynamicRequest()
	o := TxOverrides{
		To:        &other,
		Value:     big.NewInt(7),
		Gas:       &gas,
		GasTipCap: big.NewInt(4),
		Nonce:     &nonce,
		Data:      []byte{0x01},
	}
	o.apply(r)

	assert.Equal(t, other, *r.To)
	assert.Equal(t, big.NewInt(7), r.Value)
	assert.Equal(t, gas, r.Gas)
	assert.Equal(t, big.NewInt(4), r.GasTipCap)
	assert.Equal(t, big.NewInt(22), r.GasFeeCap, "unset override keeps computed value")
	assert.Equal(t, nonce, r.Nonce)
	assert.Equal(t, []byte{0x01}, r.Data)

	// overrides are copied, not aliased
	o.Value.SetInt64(100)
	other[0] = 0xff
	assert.Equal(t, big.NewInt(7), r.Value)
	assert.NotEqual(t, other, *r.To)
}

func TestTxOverridesApply_Empty(t *testing.T) {
	r := legacyRequest()
	r.Data = []byte{0xaa}
	want := *r

	var o TxOverrides
	o.apply(r)
	assert.Equal(t, want, *r)

	o.Data = []byte{}
	o.apply(r)
	assert.Empty(t, r.Data)
}

func TestFeeModelString(t *testing.T) {
	assert.Equal(t, "legacy", LegacyFees.String())
	assert.Equal(t, "eip1559", DynamicFees.String())
	assert.Equal(t, "unknown", FeeModel(7).String())
}
