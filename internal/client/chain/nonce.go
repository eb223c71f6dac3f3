// Package chain reads the wrapper contract's per-user replay-protection
// counter. It is the only place in the protocol that talks to the chain, and
// the only boundary where retrying is safe: getNonce is a read-only call.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rangebet/rangebet-api/internal/logger"
	"go.uber.org/zap"
)

// ErrContractUnreachable signals that the getNonce read could not complete:
// network failure, wrong chain, or no contract deployed at the address.
var ErrContractUnreachable = errors.New("wrapper contract unreachable")

const getNonceABI = `[{"name":"getNonce","type":"function","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}]`

// RetryConfig bounds the exponential backoff around rate-limited RPC reads.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig provides sensible defaults for chain reads.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// NonceSource fetches the user's current on-chain nonce from the wrapper
// contract. It holds no local state; callers must query it fresh before every
// delegation so a counter advanced by another device is never reused.
type NonceSource struct {
	caller   ethereum.ContractCaller
	contract common.Address
	abi      abi.ABI
	retry    RetryConfig
	logger   *zap.Logger
}

// NewNonceSource creates a nonce source reading from the given wrapper
// contract through any ContractCaller (ethclient.Client in production).
func NewNonceSource(caller ethereum.ContractCaller, contract common.Address) (*NonceSource, error) {
	parsed, err := abi.JSON(strings.NewReader(getNonceABI))
	if err != nil {
		return nil, fmt.Errorf("parse getNonce ABI: %w", err)
	}
	return &NonceSource{
		caller:   caller,
		contract: contract,
		abi:      parsed,
		retry:    DefaultRetryConfig(),
		logger:   logger.Log,
	}, nil
}

// WithRetryConfig overrides the read retry policy.
func (s *NonceSource) WithRetryConfig(cfg RetryConfig) *NonceSource {
	s.retry = cfg
	return s
}

// FetchNonce performs the read-only getNonce(user) call. Transient failures
// are retried with bounded exponential backoff; exhaustion surfaces as
// ErrContractUnreachable.
func (s *NonceSource) FetchNonce(ctx context.Context, user common.Address) (*big.Int, error) {
	input, err := s.abi.Pack("getNonce", user)
	if err != nil {
		return nil, fmt.Errorf("pack getNonce call: %w", err)
	}

	msg := ethereum.CallMsg{To: &s.contract, Data: input}

	var output []byte
	operation := func() error {
		var callErr error
		output, callErr = s.caller.CallContract(ctx, msg, nil)
		return callErr
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = s.retry.InitialInterval
	expBackoff.MaxInterval = s.retry.MaxInterval

	err = backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(expBackoff, s.retry.MaxRetries), ctx))
	if err != nil {
		s.logger.Warn("getNonce call failed",
			zap.String("contract", s.contract.Hex()),
			zap.String("user", user.Hex()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrContractUnreachable, err)
	}

	results, err := s.abi.Unpack("getNonce", output)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack getNonce result: %v", ErrContractUnreachable, err)
	}
	nonce, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected getNonce result type", ErrContractUnreachable)
	}

	return nonce, nil
}
