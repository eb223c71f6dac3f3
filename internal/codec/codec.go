// Package codec converts human-entered decimal USD values into the
// fixed-point integer encodings the wrapper contract expects, and back.
// Amounts are 6-decimal fixed-point, prices are 8-decimal fixed-point.
package codec

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// AmountDecimals is the fixed-point scale for USD-pegged amounts
	AmountDecimals = 6

	// PriceDecimals is the fixed-point scale for oracle-style prices
	PriceDecimals = 8
)

// AmountToFixedPoint encodes a USD amount as a 6-decimal fixed-point integer.
// The conversion floors, so the encoded value never exceeds what the user entered.
func AmountToFixedPoint(usd decimal.Decimal) *big.Int {
	return usd.Shift(AmountDecimals).Floor().BigInt()
}

// FixedPointToAmount decodes a 6-decimal fixed-point integer back to a USD amount.
func FixedPointToAmount(raw *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -AmountDecimals)
}

// PriceToFixedPoint encodes a USD price as an 8-decimal fixed-point integer.
// The conversion floors, so the encoded value never exceeds what the user entered.
func PriceToFixedPoint(usd decimal.Decimal) *big.Int {
	return usd.Shift(PriceDecimals).Floor().BigInt()
}

// FixedPointToPrice decodes an 8-decimal fixed-point integer back to a USD price.
func FixedPointToPrice(raw *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -PriceDecimals)
}
