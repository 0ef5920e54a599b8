package ethclient

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var errNotQuantity = errors.New("not a non-negative hex or decimal integer")

// EncodeQuantity encodes n as a JSON-RPC quantity: 0x-prefixed hex without
// leading zeros, with zero encoded as "0x0". A nil n encodes as zero.
func EncodeQuantity(n *big.Int) string {
	if n == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(n)
}

// DecodeQuantity decodes a JSON-RPC quantity. It is strict: the 0x prefix is
// required and leading zeros are rejected.
func DecodeQuantity(s string) (*big.Int, error) {
	n, err := hexutil.DecodeBig(s)
	if err != nil {
		return nil, &ValidationError{Field: "quantity", Value: s, Err: err}
	}
	return n, nil
}

// ParseQuantity parses caller-supplied integers. Hex strings (0x-prefixed)
// are taken as-is, leading zeros included; anything else is read as decimal.
func ParseQuantity(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	digits, base := s, 10
	if has0xPrefix(s) {
		digits, base = s[2:], 16
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok || digits == "" || n.Sign() < 0 || strings.HasPrefix(digits, "+") {
		return nil, &ValidationError{Field: "quantity", Value: s, Err: errNotQuantity}
	}
	return n, nil
}

// ParseBlockNumber parses a block reference. It accepts decimal and hex
// numbers and the tags "latest", "pending", "earliest", "safe" and
// "finalized". Tags are returned as the negative rpc.BlockNumber value they
// stand for, which toBlockNumArg turns back into the tag.
func ParseBlockNumber(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 63); err == nil {
		return new(big.Int).SetUint64(n), nil
	}
	var bn rpc.BlockNumber
	if err := bn.UnmarshalJSON([]byte(strconv.Quote(strings.ToLower(s)))); err != nil {
		return nil, &ValidationError{Field: "block number", Value: s, Err: err}
	}
	return big.NewInt(bn.Int64()), nil
}

// toBlockNumArg converts a block number to the appropriate RPC argument.
func toBlockNumArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	if number.Sign() >= 0 {
		return hexutil.EncodeBig(number)
	}
	// negative values are the rpc.BlockNumber tags
	if number.IsInt64() {
		return rpc.BlockNumber(number.Int64()).String()
	}
	return "latest"
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
