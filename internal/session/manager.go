// Package session owns the lifecycle of a delegated trading session: key
// generation, delegation signing, relay registration, persistence, expiry
// checking and revocation. One Service instance serves one user at a time.
package session

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rangebet/rangebet-api/internal/client/relay"
	"github.com/rangebet/rangebet-api/internal/logger"
	"github.com/rangebet/rangebet-api/internal/signer"
	"go.uber.org/zap"
)

const (
	// DefaultSessionDuration bounds how long a session key may sign orders.
	DefaultSessionDuration = 24 * time.Hour

	// DefaultOrderDeadline bounds relay processing latency for one order.
	// Always far shorter than the session expiry.
	DefaultOrderDeadline = 5 * time.Minute
)

// NonceSource supplies the user's current on-chain nonce. It must be queried
// fresh before every delegation; another device may have advanced the counter.
type NonceSource interface {
	FetchNonce(ctx context.Context, user common.Address) (*big.Int, error)
}

// Config holds the session service configuration.
type Config struct {
	VerifyingContract common.Address
	SessionDuration   time.Duration
	OrderDeadline     time.Duration
}

// Info is a point-in-time view of the active session. IsExpired is recomputed
// against the wall clock on every query, never cached.
type Info struct {
	SessionKeyAddress common.Address
	Expiry            time.Time
	IsExpired         bool
	RemainingTime     time.Duration
}

type activeSession struct {
	key    SecretKey
	record Record
}

// Service is the session state machine:
// Disconnected -> Connected -> SessionActive -> (Expired | Revoked) -> Connected.
type Service struct {
	mu     sync.Mutex
	cfg    Config
	relay  relay.API
	nonces NonceSource
	store  Store
	logger *zap.Logger
	now    func() time.Time

	wallet  signer.Wallet
	user    common.Address
	domain  signer.Domain
	current *activeSession
}

// NewService creates a session service backed by the given relay, nonce
// source and store.
func NewService(cfg Config, relayAPI relay.API, nonces NonceSource, store Store) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultSessionDuration
	}
	if cfg.OrderDeadline == 0 {
		cfg.OrderDeadline = DefaultOrderDeadline
	}
	return &Service{
		cfg:    cfg,
		relay:  relayAPI,
		nonces: nonces,
		store:  store,
		logger: logger.Log,
		now:    time.Now,
	}
}

// WithClock overrides the wall clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Connect binds the service to the user's wallet and the actually-connected
// chain. The signing domain is rebuilt from the live chain ID; trusting a
// configured default here would make the contract reject every signature
// while the client believes it succeeded. Any persisted session for the user
// is reloaded, and the relay's session record is cross-checked best-effort.
func (s *Service) Connect(ctx context.Context, wallet signer.Wallet, chainID *big.Int) error {
	if wallet == nil {
		return ErrNotConnected
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.wallet = wallet
	s.user = wallet.Address()
	s.domain = signer.NewDomain(chainID, s.cfg.VerifyingContract)
	s.current = nil

	record, err := s.store.Load(s.user)
	if err != nil {
		s.logger.Warn("failed to load persisted session",
			zap.String("user", s.user.Hex()),
			zap.Error(err))
		return nil
	}
	if record == nil {
		return nil
	}

	if !s.now().Before(time.Unix(record.Expiry, 0)) {
		s.logger.Info("evicting expired persisted session",
			zap.String("user", s.user.Hex()),
			zap.Int64("expiry", record.Expiry))
		_ = s.store.Delete(s.user)
		return nil
	}

	// The relay is authoritative: if it knows of no session for this user,
	// the local record is stale (revoked elsewhere). Transport failures keep
	// the local session; this check is best-effort.
	remote, err := s.relay.GetSession(ctx, s.user.Hex())
	if err == nil && remote == nil {
		s.logger.Info("relay reports no session, evicting local record",
			zap.String("user", s.user.Hex()))
		_ = s.store.Delete(s.user)
		return nil
	}

	s.current = &activeSession{key: record.SessionPrivateKey, record: *record}
	s.logger.Info("restored persisted session",
		zap.String("user", s.user.Hex()),
		zap.String("session_key", record.SessionKeyAddress),
		zap.Int64("expiry", record.Expiry))
	return nil
}

// CreateSession generates a fresh ephemeral key, has the wallet sign a
// delegation for it, and registers it with the relay. Calls are serialized:
// a second call cannot start building a delegation while a prior round-trip
// is outstanding, so two delegations never race on the same nonce. Creating
// a new session supersedes any existing one; on any failure the prior session
// is left untouched.
func (s *Service) CreateSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return ErrNotConnected
	}

	sessionKey, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("generate session key: %w", err)
	}
	sessionKeyAddress := crypto.PubkeyToAddress(sessionKey.PublicKey)
	expiry := s.now().Add(s.cfg.SessionDuration).Unix()

	// Nonce fetch immediately before signing keeps the staleness window as
	// small as the wallet prompt allows.
	nonce, err := s.nonces.FetchNonce(ctx, s.user)
	if err != nil {
		return err
	}

	msg := signer.DelegationMessage{
		User:       s.user,
		SessionKey: sessionKeyAddress,
		Expiry:     uint64(expiry),
	}
	sig, err := signer.SignDelegation(ctx, s.wallet, s.domain, msg)
	if err != nil {
		return err
	}

	err = s.relay.CreateSession(ctx, relay.CreateSessionRequest{
		User:                s.user.Hex(),
		SessionKey:          sessionKeyAddress.Hex(),
		Expiry:              expiry,
		Nonce:               nonce.String(),
		DelegationSignature: hexSignature(sig),
	})
	if err != nil {
		return err
	}

	record := Record{
		User:                s.user.Hex(),
		SessionKeyAddress:   sessionKeyAddress.Hex(),
		SessionPrivateKey:   NewSecretKey(sessionKey),
		Expiry:              expiry,
		DelegationNonce:     nonce.String(),
		DelegationSignature: hexSignature(sig),
	}
	if err := s.store.Save(record); err != nil {
		// The relay accepted the delegation; the session is live even if the
		// local record did not stick.
		s.logger.Warn("failed to persist session record",
			zap.String("user", s.user.Hex()),
			zap.Error(err))
	}
	s.current = &activeSession{key: record.SessionPrivateKey, record: record}

	s.logger.Info("session created",
		zap.String("user", s.user.Hex()),
		zap.String("session_key", record.SessionKeyAddress),
		zap.Int64("expiry", expiry))
	return nil
}

// GetSessionInfo reports the current session, or nil if none. An expired
// session is reported once with IsExpired set, and evicted so subsequent
// reads treat it as absent.
func (s *Service) GetSessionInfo() *Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil
	}

	expiry := time.Unix(s.current.record.Expiry, 0)
	now := s.now()
	info := &Info{
		SessionKeyAddress: common.HexToAddress(s.current.record.SessionKeyAddress),
		Expiry:            expiry,
		IsExpired:         !now.Before(expiry),
	}
	if info.IsExpired {
		s.evictLocked("expired")
		return info
	}
	info.RemainingTime = expiry.Sub(now)
	return info
}

// RevokeSession asks the relay to revoke the user's session and clears local
// state on acceptance. Revocation authority ultimately lives with the relay
// and contract; this is best-effort from the client's perspective.
func (s *Service) RevokeSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wallet == nil {
		return ErrNotConnected
	}

	if err := s.relay.RevokeSession(ctx, s.user.Hex()); err != nil {
		return err
	}

	s.evictLocked("revoked")
	return nil
}

// hexSignature formats signature bytes for relay payloads and records.
func hexSignature(sig []byte) string {
	return hexutil.Encode(sig)
}

// evictLocked clears in-memory and persisted session state. Callers hold mu.
func (s *Service) evictLocked(reason string) {
	if s.current != nil {
		s.logger.Info("session evicted",
			zap.String("user", s.user.Hex()),
			zap.String("session_key", s.current.record.SessionKeyAddress),
			zap.String("reason", reason))
	}
	s.current = nil
	if err := s.store.Delete(s.user); err != nil {
		s.logger.Warn("failed to delete session record",
			zap.String("user", s.user.Hex()),
			zap.Error(err))
	}
}
