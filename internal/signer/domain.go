package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const (
	// DomainName and DomainVersion identify the protocol to the wrapper
	// contract. They must match the values baked into the deployed verifier;
	// a mismatch invalidates every signature produced under the domain.
	DomainName    = "RangeBet Wrapper"
	DomainVersion = "1"
)

// Domain is the EIP-712 signing domain shared by delegation and order
// signatures. It is rebuilt whenever the active chain changes.
type Domain struct {
	Name              string
	Version           string
	ChainID           *big.Int
	VerifyingContract common.Address
}

// NewDomain builds the signing domain for the given chain and wrapper contract.
func NewDomain(chainID *big.Int, verifyingContract common.Address) Domain {
	return Domain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainID:           chainID,
		VerifyingContract: verifyingContract,
	}
}

func (d Domain) typedDataDomain() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              d.Name,
		Version:           d.Version,
		ChainId:           (*math.HexOrDecimal256)(d.ChainID),
		VerifyingContract: d.VerifyingContract.Hex(),
	}
}

// DelegationMessage is the signed grant "sessionKey may sign orders on behalf
// of user until expiry". The contract tracks the per-user nonce separately, so
// the message itself carries none.
type DelegationMessage struct {
	User       common.Address
	SessionKey common.Address
	Expiry     uint64
}

// OrderMessage is one trade instruction, signed by the session key. Prices are
// 8-decimal fixed-point, the amount is 6-decimal fixed-point, deadline is Unix
// seconds. The relay-side nonce travels outside the signed message.
type OrderMessage struct {
	User         common.Address
	TimeperiodID uint64
	PriceMin     *big.Int
	PriceMax     *big.Int
	Amount       *big.Int
	Deadline     uint64
}

var eip712DomainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// DelegationTypedData builds the EIP-712 payload for a session delegation.
// The type name and field order are part of the wire contract; changing either
// silently breaks verification on the wrapper contract.
func DelegationTypedData(domain Domain, msg DelegationMessage) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainType,
			"SessionDelegation": []apitypes.Type{
				{Name: "user", Type: "address"},
				{Name: "sessionKey", Type: "address"},
				{Name: "expiry", Type: "uint256"},
			},
		},
		PrimaryType: "SessionDelegation",
		Domain:      domain.typedDataDomain(),
		Message: apitypes.TypedDataMessage{
			"user":       msg.User.Hex(),
			"sessionKey": msg.SessionKey.Hex(),
			"expiry":     (*math.HexOrDecimal256)(new(big.Int).SetUint64(msg.Expiry)),
		},
	}
}

// OrderTypedData builds the EIP-712 payload for a bet order.
func OrderTypedData(domain Domain, msg OrderMessage) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712DomainType,
			"BetOrder": []apitypes.Type{
				{Name: "user", Type: "address"},
				{Name: "timeperiodId", Type: "uint256"},
				{Name: "priceMin", Type: "uint256"},
				{Name: "priceMax", Type: "uint256"},
				{Name: "amount", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
			},
		},
		PrimaryType: "BetOrder",
		Domain:      domain.typedDataDomain(),
		Message: apitypes.TypedDataMessage{
			"user":         msg.User.Hex(),
			"timeperiodId": (*math.HexOrDecimal256)(new(big.Int).SetUint64(msg.TimeperiodID)),
			"priceMin":     (*math.HexOrDecimal256)(msg.PriceMin),
			"priceMax":     (*math.HexOrDecimal256)(msg.PriceMax),
			"amount":       (*math.HexOrDecimal256)(msg.Amount),
			"deadline":     (*math.HexOrDecimal256)(new(big.Int).SetUint64(msg.Deadline)),
		},
	}
}
