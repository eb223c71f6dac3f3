// Package signer produces the domain-separated typed-data signatures the
// wrapper contract verifies: session delegations signed by the user's wallet
// and bet orders signed by an ephemeral session key.
package signer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ErrUserRejected is returned by interactive wallets when the user dismisses
// the approval prompt. Callers surface it distinctly from network failures.
var ErrUserRejected = errors.New("user rejected signature request")

// Wallet is a signing identity that can approve typed-data payloads.
// Interactive implementations may block indefinitely on user approval and
// return ErrUserRejected if the prompt is dismissed.
type Wallet interface {
	Address() common.Address
	SignTypedData(ctx context.Context, typed apitypes.TypedData) ([]byte, error)
}

// SignDelegation signs a session delegation through the wallet. When the
// wallet is user-controlled this triggers an interactive approval prompt.
func SignDelegation(ctx context.Context, wallet Wallet, domain Domain, msg DelegationMessage) ([]byte, error) {
	return wallet.SignTypedData(ctx, DelegationTypedData(domain, msg))
}

// SignOrder signs a bet order with the session private key. This path never
// prompts; that asymmetry is the point of the delegation design.
func SignOrder(sessionKey *ecdsa.PrivateKey, domain Domain, msg OrderMessage) ([]byte, error) {
	digest, err := HashTypedData(OrderTypedData(domain, msg))
	if err != nil {
		return nil, fmt.Errorf("hash order: %w", err)
	}
	return signDigest(digest, sessionKey)
}

// HashTypedData computes the EIP-712 digest: keccak256(0x1901 || domainSeparator || structHash).
func HashTypedData(typed apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := typed.HashStruct("EIP712Domain", typed.Domain.Map())
	if err != nil {
		return nil, err
	}
	messageHash, err := typed.HashStruct(typed.PrimaryType, typed.Message)
	if err != nil {
		return nil, err
	}
	digest := crypto.Keccak256(
		[]byte{0x19, 0x01},
		[]byte(domainSeparator),
		[]byte(messageHash),
	)
	return digest, nil
}

// signDigest signs a 32-byte digest and normalizes V to 27/28 as the contract
// expects. go-ethereum returns [R || S || V] with V in {0, 1}.
func signDigest(digest []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("sign digest: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// LocalWallet is a Wallet backed by an in-process private key. It signs
// without prompting, so it serves tests, tooling, and the session-key path.
type LocalWallet struct {
	key *ecdsa.PrivateKey
}

// NewLocalWallet wraps an ECDSA private key as a Wallet.
func NewLocalWallet(key *ecdsa.PrivateKey) *LocalWallet {
	return &LocalWallet{key: key}
}

// NewLocalWalletFromHex parses a hex private key (with or without 0x prefix).
func NewLocalWalletFromHex(hexKey string) (*LocalWallet, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &LocalWallet{key: key}, nil
}

// Address returns the wallet's address.
func (w *LocalWallet) Address() common.Address {
	return crypto.PubkeyToAddress(w.key.PublicKey)
}

// SignTypedData signs the EIP-712 digest of the payload.
func (w *LocalWallet) SignTypedData(_ context.Context, typed apitypes.TypedData) ([]byte, error) {
	digest, err := HashTypedData(typed)
	if err != nil {
		return nil, fmt.Errorf("hash typed data: %w", err)
	}
	return signDigest(digest, w.key)
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
