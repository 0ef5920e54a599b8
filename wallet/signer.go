// Package wallet provides signers for ethclient transfers backed by local
// private keys or by an existing bind.SignerFn.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"

	"ethrpc/ethclient"
)

var (
	ErrWrongSender = errors.New("request sender does not match signer")
	ErrNilKey      = errors.New("private key is required")
)

var (
	_ ethclient.Signer = (*KeySigner)(nil)
	_ ethclient.Signer = (*FnSigner)(nil)
)

// KeySigner signs with an in-memory secp256k1 key.
type KeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewKeySigner creates a signer for key.
func NewKeySigner(key *ecdsa.PrivateKey) (*KeySigner, error) {
	if key == nil {
		return nil, ErrNilKey
	}
	return &KeySigner{
		key:  key,
		addr: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// NewKeySignerFromHex parses a hex private key, with or without 0x prefix.
func NewKeySignerFromHex(hexkey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexkey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return NewKeySigner(key)
}

// Address returns the address derived from the private key.
func (s *KeySigner) Address() common.Address {
	return s.addr
}

// SignRequest signs req with the signer for req.ChainID and returns the
// typed-envelope encoding of the signed transaction.
func (s *KeySigner) SignRequest(req *ethclient.TxRequest) ([]byte, error) {
	if req.From != s.addr {
		return nil, fmt.Errorf("%w: %s != %s", ErrWrongSender, req.From, s.addr)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tx, err := s.SignTx(req.Transaction(), req.ChainID)
	if err != nil {
		return nil, err
	}
	return tx.MarshalBinary()
}

// SignTx signs tx for chainID. Legacy transactions are signed with EIP-155
// replay protection.
func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// SignerFn adapts the signer to contract bindings.
func (s *KeySigner) SignerFn(chainID *big.Int) bind.SignerFn {
	return func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if addr != s.addr {
			return nil, fmt.Errorf("%w: %s != %s", ErrWrongSender, addr, s.addr)
		}
		return s.SignTx(tx, chainID)
	}
}

// SignMessage signs msg with the EIP-191 personal message prefix.
func (s *KeySigner) SignMessage(msg []byte) ([]byte, error) {
	return crypto.Sign(accounts.TextHash(msg), s.key)
}

// FnSigner signs through a bind.SignerFn, such as one produced by
// bind.NewKeyedTransactorWithChainID or a keystore.
type FnSigner struct {
	addr common.Address
	fn   bind.SignerFn
}

// NewFnSigner creates a signer that signs as addr through fn.
func NewFnSigner(addr common.Address, fn bind.SignerFn) *FnSigner {
	return &FnSigner{addr: addr, fn: fn}
}

func (s *FnSigner) Address() common.Address {
	return s.addr
}

func (s *FnSigner) SignRequest(req *ethclient.TxRequest) ([]byte, error) {
	if req.From != s.addr {
		return nil, fmt.Errorf("%w: %s != %s", ErrWrongSender, req.From, s.addr)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	tx, err := s.fn(s.addr, req.Transaction())
	if err != nil {
		return nil, err
	}
	return tx.MarshalBinary()
}

// DeterministicKey derives a private key from keccak256(seed). The keys are
// only as secret as the seed and are meant for test networks.
func DeterministicKey(seed string) (*ecdsa.PrivateKey, error) {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(seed))
	key, err := crypto.ToECDSA(h.Sum(nil))
	if err != nil {
		return nil, fmt.Errorf("deriving key from seed %q: %w", seed, err)
	}
	return key, nil
}
