package ethclient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Signer is the signing capability a caller hands to SendTransfer. The
// client never sees key material, only the raw signed bytes.
type Signer interface {
	// Address is the sender of every request the signer signs.
	Address() common.Address
	// SignRequest signs req and returns the encoded transaction, ready for
	// eth_sendRawTransaction.
	SignRequest(req *TxRequest) ([]byte, error)
}

// Transfer describes a value transfer (or contract call, via
// Overrides.Data) for SendTransfer.
type Transfer struct {
	To       common.Address
	Amount   *big.Int // nil means zero
	GasLimit uint64 // Overrides.Gas takes its place when set
	Fees     FeeModel

	// GasPrice is used with LegacyFees. Fetched with eth_gasPrice when nil.
	GasPrice *big.Int
	// GasTipCap is used with DynamicFees. Fetched with
	// eth_maxPriorityFeePerGas when nil.
	GasTipCap *big.Int
	// GasFeeCap is used with DynamicFees. MaxFeeFor(latest base fee,
	// GasTipCap) when nil.
	GasFeeCap *big.Int

	// Overrides are merged last and take precedence over everything above.
	// A fee or nonce supplied here is not fetched.
	Overrides TxOverrides
}

// SendTransfer builds a transaction from t, has signer sign it, and
// broadcasts it. It returns the hash reported by the endpoint.
//
// Unless supplied, the fees and the sender's nonce ("latest") are fetched
// first, one request each. The nonce is not reserved: two concurrent
// transfers from one sender can read the same nonce, and the endpoint will
// then reject or replace one of them. Callers that send concurrently from
// one account must serialize those sends or pass Overrides.Nonce.
//
// Nothing is retried. The first failing step ends the transfer and its
// error is returned.
func (c *Client) SendTransfer(ctx context.Context, signer Signer, t Transfer) (common.Hash, error) {
	if signer == nil {
		return common.Hash{}, &ValidationError{Field: "signer", Err: ErrNilSigner}
	}
	req, err := c.BuildTransfer(ctx, signer.Address(), t)
	if err != nil {
		return common.Hash{}, err
	}

	raw, err := signer.SignRequest(req)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	hash, err := c.SendRawTransaction(ctx, raw)
	if err != nil {
		c.log.Warn("Transfer rejected", "from", req.From, "nonce", req.Nonce, "err", err)
		return common.Hash{}, err
	}
	c.log.Info("Transfer submitted", "hash", hash, "from", req.From, "nonce", req.Nonce)
	return hash, nil
}

// BuildTransfer resolves t into a validated TxRequest from the given
// sender, fetching whatever fees and nonce were not supplied. Input errors,
// including those in t.Overrides and fee fields that do not belong to
// t.Fees, are reported before any request is sent.
func (c *Client) BuildTransfer(ctx context.Context, from common.Address, t Transfer) (*TxRequest, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	to := t.To
	req := &TxRequest{
		From:    from,
		To:      &to,
		Value:   new(big.Int),
		Gas:     t.GasLimit,
		ChainID: new(big.Int).Set(c.chainID),
	}
	if t.Amount != nil {
		req.Value.Set(t.Amount)
	}

	var err error
	switch t.Fees {
	case LegacyFees:
		req.GasPrice, err = c.legacyGasPrice(ctx, t)
	case DynamicFees:
		req.GasTipCap, req.GasFeeCap, err = c.dynamicFees(ctx, t)
	}
	if err != nil {
		return nil, err
	}

	if t.Overrides.Nonce == nil {
		if req.Nonce, err = c.NonceAt(ctx, from, nil); err != nil {
			return nil, err
		}
	}

	t.Overrides.apply(req)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.log.Debug("Assembled transfer", "from", req.From, "to", req.To, "value", req.Value,
		"gas", req.Gas, "fees", req.FeeModel(), "gasPrice", req.GasPrice,
		"tipCap", req.GasTipCap, "feeCap", req.GasFeeCap, "nonce", req.Nonce, "data", len(req.Data))
	return req, nil
}

// validate checks t together with its overrides, so that every input error
// surfaces before the first request.
func (t *Transfer) validate() error {
	value := firstSet(t.Overrides.Value, t.Amount)
	if value != nil && value.Sign() < 0 {
		return &ValidationError{Field: "amount", Value: value.String(), Err: ErrNegativeValue}
	}
	gas := t.GasLimit
	if t.Overrides.Gas != nil {
		gas = *t.Overrides.Gas
	}
	if gas == 0 {
		return &ValidationError{Field: "gas limit", Value: "0", Err: ErrZeroGasLimit}
	}

	price := firstSet(t.Overrides.GasPrice, t.GasPrice)
	tip := firstSet(t.Overrides.GasTipCap, t.GasTipCap)
	feeCap := firstSet(t.Overrides.GasFeeCap, t.GasFeeCap)
	switch t.Fees {
	case LegacyFees:
		if tip != nil || feeCap != nil {
			return &ValidationError{Field: "fees", Value: t.Fees.String(), Err: ErrMixedFeeModels}
		}
	case DynamicFees:
		if price != nil {
			return &ValidationError{Field: "fees", Value: t.Fees.String(), Err: ErrMixedFeeModels}
		}
		if tip != nil && feeCap != nil && tip.Cmp(feeCap) > 0 {
			return &ValidationError{Field: "fees", Err: ErrTipAboveFeeCap}
		}
	default:
		return &ValidationError{Field: "fee model", Value: t.Fees.String(), Err: ErrUnknownFeeModel}
	}
	return nil
}

func (c *Client) legacyGasPrice(ctx context.Context, t Transfer) (*big.Int, error) {
	switch {
	case t.Overrides.GasPrice != nil:
		return nil, nil // set by apply
	case t.GasPrice != nil:
		return new(big.Int).Set(t.GasPrice), nil
	}
	return c.SuggestGasPrice(ctx)
}

// dynamicFees resolves the priority fee first, then the max fee, which
// depends on it.
func (c *Client) dynamicFees(ctx context.Context, t Transfer) (*big.Int, *big.Int, error) {
	tip := firstSet(t.Overrides.GasTipCap, t.GasTipCap)
	if tip == nil {
		var err error
		if tip, err = c.SuggestGasTipCap(ctx); err != nil {
			return nil, nil, err
		}
	}

	feeCap := firstSet(t.Overrides.GasFeeCap, t.GasFeeCap)
	if feeCap == nil {
		baseFee, err := c.LatestBaseFee(ctx)
		if err != nil {
			return nil, nil, err
		}
		feeCap = MaxFeeFor(baseFee, tip)
	}
	return new(big.Int).Set(tip), new(big.Int).Set(feeCap), nil
}

func firstSet(vals ...*big.Int) *big.Int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
