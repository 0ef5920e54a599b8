package ethclient

import (
	"context"
	"math/big"
)

// MaxFeeFor returns the EIP-1559 max fee per gas recommended for a given
// base fee and priority fee: 2*baseFee + tip, which covers one doubling of
// the base fee before inclusion. A nil argument counts as zero.
func MaxFeeFor(baseFee, tip *big.Int) *big.Int {
	maxFee := new(big.Int)
	if baseFee != nil {
		maxFee.Lsh(baseFee, 1)
	}
	if tip != nil {
		maxFee.Add(maxFee, tip)
	}
	return maxFee
}

// LatestBaseFee returns the base fee of the next block, taken from a
// one-block eth_feeHistory ending at the latest block.
func (c *Client) LatestBaseFee(ctx context.Context) (*big.Int, error) {
	history, err := c.FeeHistory(ctx, 1, nil, nil)
	if err != nil {
		return nil, err
	}
	n := len(history.BaseFee)
	if n == 0 || history.BaseFee[n-1] == nil {
		return nil, &ResponseError{Method: "eth_feeHistory", Err: ErrNoBaseFee}
	}
	return history.BaseFee[n-1], nil
}

// RecommendedMaxFee returns MaxFeeFor(latest base fee, current priority
// fee). The base fee is fetched first; if that fails the priority fee is not
// requested.
func (c *Client) RecommendedMaxFee(ctx context.Context) (*big.Int, error) {
	baseFee, err := c.LatestBaseFee(ctx)
	if err != nil {
		return nil, err
	}
	tip, err := c.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, err
	}
	return MaxFeeFor(baseFee, tip), nil
}
