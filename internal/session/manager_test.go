package session_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rangebet/rangebet-api/internal/client/chain"
	"github.com/rangebet/rangebet-api/internal/client/relay"
	"github.com/rangebet/rangebet-api/internal/logger"
	"github.com/rangebet/rangebet-api/internal/mocks"
	"github.com/rangebet/rangebet-api/internal/session"
	"github.com/rangebet/rangebet-api/internal/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	logger.InitLogger("test")
}

var (
	testContract = common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E")
	testChainID  = big.NewInt(137)
	testStart    = time.Unix(1700000000, 0)
)

type fixture struct {
	service *session.Service
	relay   *mocks.MockRelayAPI
	nonces  *mocks.MockNonceSource
	store   *session.MemoryStore
	wallet  *signer.LocalWallet
	clock   *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	now := testStart
	f := &fixture{
		relay:  mocks.NewMockRelayAPI(ctrl),
		nonces: mocks.NewMockNonceSource(ctrl),
		store:  session.NewMemoryStore(),
		wallet: signer.NewLocalWallet(key),
		clock:  &now,
	}
	f.service = session.NewService(session.Config{
		VerifyingContract: testContract,
	}, f.relay, f.nonces, f.store).WithClock(func() time.Time { return *f.clock })
	return f
}

func (f *fixture) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, f.service.Connect(context.Background(), f.wallet, testChainID))
}

// createSession runs a successful creation with the given nonce and returns
// the request the relay saw.
func (f *fixture) createSession(t *testing.T, nonce int64) relay.CreateSessionRequest {
	t.Helper()

	f.nonces.EXPECT().FetchNonce(gomock.Any(), f.wallet.Address()).Return(big.NewInt(nonce), nil)

	var captured relay.CreateSessionRequest
	f.relay.EXPECT().CreateSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req relay.CreateSessionRequest) error {
			captured = req
			return nil
		})

	require.NoError(t, f.service.CreateSession(context.Background()))
	return captured
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	req := f.createSession(t, 5)

	assert.Equal(t, f.wallet.Address().Hex(), req.User)
	assert.Equal(t, "5", req.Nonce)
	assert.Equal(t, testStart.Add(session.DefaultSessionDuration).Unix(), req.Expiry)

	// The delegation signature must verify against the wallet under the
	// exact domain and message the relay received.
	domain := signer.NewDomain(testChainID, testContract)
	digest, err := signer.HashTypedData(signer.DelegationTypedData(domain, signer.DelegationMessage{
		User:       common.HexToAddress(req.User),
		SessionKey: common.HexToAddress(req.SessionKey),
		Expiry:     uint64(req.Expiry),
	}))
	require.NoError(t, err)

	sig, err := hexutil.Decode(req.DelegationSignature)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	sig[64] -= 27
	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, f.wallet.Address(), crypto.PubkeyToAddress(*pub))

	info := f.service.GetSessionInfo()
	require.NotNil(t, info)
	assert.False(t, info.IsExpired)
	assert.Equal(t, common.HexToAddress(req.SessionKey), info.SessionKeyAddress)
	assert.Equal(t, session.DefaultSessionDuration, info.RemainingTime)

	// Session key never equals the wallet key's address.
	assert.NotEqual(t, f.wallet.Address(), info.SessionKeyAddress)

	record, err := f.store.Load(f.wallet.Address())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, req.SessionKey, record.SessionKeyAddress)
	assert.Equal(t, "5", record.DelegationNonce)
}

func TestCreateSession_FreshNoncePerAttempt(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	first := f.createSession(t, 5)
	second := f.createSession(t, 6)

	assert.Equal(t, "5", first.Nonce)
	assert.Equal(t, "6", second.Nonce)
	assert.NotEqual(t, first.SessionKey, second.SessionKey,
		"a superseding session must use a fresh ephemeral key")
}

func TestCreateSession_RelayRejection(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	f.nonces.EXPECT().FetchNonce(gomock.Any(), gomock.Any()).Return(big.NewInt(5), nil)
	f.relay.EXPECT().CreateSession(gomock.Any(), gomock.Any()).Return(
		&relay.RejectedError{Endpoint: "/create-session", Message: "nonce mismatch"})

	err := f.service.CreateSession(context.Background())

	require.Error(t, err)
	assert.Equal(t, "nonce mismatch", err.Error(), "relay error must propagate verbatim")
	assert.Nil(t, f.service.GetSessionInfo(), "no session state after rejection")

	record, loadErr := f.store.Load(f.wallet.Address())
	require.NoError(t, loadErr)
	assert.Nil(t, record, "nothing persisted after rejection")
}

func TestCreateSession_NonceFetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)

	// Wallet mock proves no signing prompt fires when the nonce read fails.
	wallet := mocks.NewMockWallet(ctrl)
	wallet.EXPECT().Address().Return(common.HexToAddress("0x2222222222222222222222222222222222222222")).AnyTimes()
	require.NoError(t, f.service.Connect(context.Background(), wallet, testChainID))

	f.nonces.EXPECT().FetchNonce(gomock.Any(), gomock.Any()).Return(nil, chain.ErrContractUnreachable)

	err := f.service.CreateSession(context.Background())

	assert.ErrorIs(t, err, chain.ErrContractUnreachable)
	assert.Nil(t, f.service.GetSessionInfo())
}

func TestCreateSession_UserRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)

	wallet := mocks.NewMockWallet(ctrl)
	wallet.EXPECT().Address().Return(common.HexToAddress("0x2222222222222222222222222222222222222222")).AnyTimes()
	require.NoError(t, f.service.Connect(context.Background(), wallet, testChainID))

	f.nonces.EXPECT().FetchNonce(gomock.Any(), gomock.Any()).Return(big.NewInt(5), nil)
	wallet.EXPECT().SignTypedData(gomock.Any(), gomock.Any()).Return(nil, signer.ErrUserRejected)

	err := f.service.CreateSession(context.Background())

	assert.ErrorIs(t, err, signer.ErrUserRejected)
	assert.Nil(t, f.service.GetSessionInfo())
}

func TestCreateSession_TransportFailureKeepsPriorSession(t *testing.T) {
	f := newFixture(t)
	f.connect(t)

	first := f.createSession(t, 5)

	f.nonces.EXPECT().FetchNonce(gomock.Any(), gomock.Any()).Return(big.NewInt(6), nil)
	f.relay.EXPECT().CreateSession(gomock.Any(), gomock.Any()).Return(
		&relay.TransportError{Endpoint: "/create-session", Err: errors.New("connection reset")})

	err := f.service.CreateSession(context.Background())
	require.Error(t, err)

	// The still-valid prior session must not be lost to one flaky request.
	info := f.service.GetSessionInfo()
	require.NotNil(t, info)
	assert.Equal(t, common.HexToAddress(first.SessionKey), info.SessionKeyAddress)

	record, loadErr := f.store.Load(f.wallet.Address())
	require.NoError(t, loadErr)
	require.NotNil(t, record)
	assert.Equal(t, first.SessionKey, record.SessionKeyAddress)
}

func TestCreateSession_NotConnected(t *testing.T) {
	f := newFixture(t)

	err := f.service.CreateSession(context.Background())

	assert.ErrorIs(t, err, session.ErrNotConnected)
}

func TestGetSessionInfo_PassiveExpiry(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	f.createSession(t, 5)

	*f.clock = testStart.Add(session.DefaultSessionDuration + time.Second)

	info := f.service.GetSessionInfo()
	require.NotNil(t, info)
	assert.True(t, info.IsExpired)
	assert.Zero(t, info.RemainingTime)

	// The expired session is evicted; subsequent reads see no session at all.
	assert.Nil(t, f.service.GetSessionInfo())
	record, err := f.store.Load(f.wallet.Address())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestGetSessionInfo_RecomputesAgainstWallClock(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	f.createSession(t, 5)

	info := f.service.GetSessionInfo()
	require.NotNil(t, info)
	assert.False(t, info.IsExpired)

	*f.clock = testStart.Add(12 * time.Hour)
	info = f.service.GetSessionInfo()
	require.NotNil(t, info)
	assert.False(t, info.IsExpired)
	assert.Equal(t, 12*time.Hour, info.RemainingTime)
}

func TestRevokeSession(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	f.createSession(t, 5)

	f.relay.EXPECT().RevokeSession(gomock.Any(), f.wallet.Address().Hex()).Return(nil)
	require.NoError(t, f.service.RevokeSession(context.Background()))

	assert.Nil(t, f.service.GetSessionInfo())

	record, err := f.store.Load(f.wallet.Address())
	require.NoError(t, err)
	assert.Nil(t, record)

	// No relay call happens for an order attempt without a session.
	_, err = f.service.PlaceOrder(context.Background(), 1, dec(t, "24.0"), dec(t, "26.0"), dec(t, "50"))
	assert.ErrorIs(t, err, session.ErrNoActiveSession)
}

func TestRevokeSession_RelayRejectionKeepsSession(t *testing.T) {
	f := newFixture(t)
	f.connect(t)
	f.createSession(t, 5)

	f.relay.EXPECT().RevokeSession(gomock.Any(), gomock.Any()).Return(
		&relay.RejectedError{Endpoint: "/revoke-session", Message: "unknown user"})

	err := f.service.RevokeSession(context.Background())
	require.Error(t, err)
	assert.Equal(t, "unknown user", err.Error())
	assert.NotNil(t, f.service.GetSessionInfo())
}

func TestConnect_RestoresPersistedSession(t *testing.T) {
	f := newFixture(t)

	sessionKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyAddress := crypto.PubkeyToAddress(sessionKey.PublicKey)
	expiry := testStart.Add(time.Hour).Unix()

	require.NoError(t, f.store.Save(session.Record{
		User:              f.wallet.Address().Hex(),
		SessionKeyAddress: keyAddress.Hex(),
		SessionPrivateKey: session.NewSecretKey(sessionKey),
		Expiry:            expiry,
	}))

	f.relay.EXPECT().GetSession(gomock.Any(), f.wallet.Address().Hex()).Return(
		&relay.SessionRecord{SessionKey: keyAddress.Hex(), Expiry: expiry}, nil)

	f.connect(t)

	info := f.service.GetSessionInfo()
	require.NotNil(t, info)
	assert.Equal(t, keyAddress, info.SessionKeyAddress)
	assert.False(t, info.IsExpired)
}

func TestConnect_EvictsExpiredPersistedSession(t *testing.T) {
	f := newFixture(t)

	sessionKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	// Expired one second ago; no relay cross-check should fire.
	require.NoError(t, f.store.Save(session.Record{
		User:              f.wallet.Address().Hex(),
		SessionKeyAddress: crypto.PubkeyToAddress(sessionKey.PublicKey).Hex(),
		SessionPrivateKey: session.NewSecretKey(sessionKey),
		Expiry:            testStart.Add(-time.Second).Unix(),
	}))

	f.connect(t)

	assert.Nil(t, f.service.GetSessionInfo())
	record, err := f.store.Load(f.wallet.Address())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestConnect_RelayAuthoritativeForMissingSession(t *testing.T) {
	f := newFixture(t)

	sessionKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	require.NoError(t, f.store.Save(session.Record{
		User:              f.wallet.Address().Hex(),
		SessionKeyAddress: crypto.PubkeyToAddress(sessionKey.PublicKey).Hex(),
		SessionPrivateKey: session.NewSecretKey(sessionKey),
		Expiry:            testStart.Add(time.Hour).Unix(),
	}))

	// Relay says the session is gone (revoked from another device).
	f.relay.EXPECT().GetSession(gomock.Any(), gomock.Any()).Return(nil, nil)

	f.connect(t)

	assert.Nil(t, f.service.GetSessionInfo())
}

func TestConnect_KeepsLocalSessionOnRelayTransportFailure(t *testing.T) {
	f := newFixture(t)

	sessionKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	keyAddress := crypto.PubkeyToAddress(sessionKey.PublicKey)

	require.NoError(t, f.store.Save(session.Record{
		User:              f.wallet.Address().Hex(),
		SessionKeyAddress: keyAddress.Hex(),
		SessionPrivateKey: session.NewSecretKey(sessionKey),
		Expiry:            testStart.Add(time.Hour).Unix(),
	}))

	f.relay.EXPECT().GetSession(gomock.Any(), gomock.Any()).Return(nil,
		&relay.TransportError{Endpoint: "/get-session", Err: errors.New("timeout")})

	f.connect(t)

	info := f.service.GetSessionInfo()
	require.NotNil(t, info)
	assert.Equal(t, keyAddress, info.SessionKeyAddress)
}
