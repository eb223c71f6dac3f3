package session

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/rangebet/rangebet-api/internal/client/relay"
	"github.com/rangebet/rangebet-api/internal/codec"
	"github.com/rangebet/rangebet-api/internal/signer"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlaceOrder signs a trade order with the session key and submits it to the
// relay. The primary wallet is never involved and no prompt is shown.
// Preconditions are checked before any network call: an active, unexpired
// session and priceMin strictly below priceMax. Rejections are surfaced
// verbatim and never retried; a resubmitted order could double-execute.
func (s *Service) PlaceOrder(ctx context.Context, timeperiodID uint64, priceMin, priceMax, amountUSD decimal.Decimal) (string, error) {
	s.mu.Lock()
	if s.wallet == nil {
		s.mu.Unlock()
		return "", ErrNotConnected
	}
	if s.current == nil {
		s.mu.Unlock()
		return "", ErrNoActiveSession
	}
	if !s.now().Before(time.Unix(s.current.record.Expiry, 0)) {
		s.evictLocked("expired")
		s.mu.Unlock()
		return "", ErrSessionExpired
	}
	if !priceMin.LessThan(priceMax) {
		s.mu.Unlock()
		return "", ErrInvalidPriceRange
	}
	// Snapshot under the lock, then release it: distinct orders may be in
	// flight concurrently, each with its own nonce and deadline.
	user := s.user
	domain := s.domain
	sessionKey := s.current.key
	deadline := s.now().Add(s.cfg.OrderDeadline).Unix()
	s.mu.Unlock()

	key, err := sessionKey.ECDSA()
	if err != nil {
		return "", fmt.Errorf("decode session key: %w", err)
	}

	msg := signer.OrderMessage{
		User:         user,
		TimeperiodID: timeperiodID,
		PriceMin:     codec.PriceToFixedPoint(priceMin),
		PriceMax:     codec.PriceToFixedPoint(priceMax),
		Amount:       codec.AmountToFixedPoint(amountUSD),
		Deadline:     uint64(deadline),
	}

	// The order nonce travels outside the signed message; the relay uses it
	// for idempotency and ordering. It must be generated, not read from the
	// contract: the contract counter only advances on execution, so two
	// in-flight orders would otherwise carry the same value.
	nonce, err := orderNonce()
	if err != nil {
		return "", err
	}

	sig, err := signer.SignOrder(key, domain, msg)
	if err != nil {
		return "", err
	}

	txHash, err := s.relay.PlaceBet(ctx, relay.PlaceBetRequest{
		User:           user.Hex(),
		TimeperiodID:   timeperiodID,
		PriceMin:       msg.PriceMin.String(),
		PriceMax:       msg.PriceMax.String(),
		Amount:         msg.Amount.String(),
		OrderSignature: hexSignature(sig),
		Nonce:          nonce,
		Deadline:       deadline,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("order placed",
		zap.String("user", user.Hex()),
		zap.Uint64("timeperiod_id", timeperiodID),
		zap.String("amount", msg.Amount.String()),
		zap.String("tx_hash", txHash))
	return txHash, nil
}

// orderNonce draws a random 64-bit nonce for relay-side idempotency.
func orderNonce() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate order nonce: %w", err)
	}
	return strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 10), nil
}
