package amount

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultDecimals is the precision of native EVM currencies.
const DefaultDecimals int32 = 18

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is an immutable token quantity holding both the base-unit (wei) value and
// the human-denominated value it was derived from.
type Amount struct {
	wei      *big.Int
	decimals int32
	ether    decimal.Decimal
}

// Parse converts a decimal string such as "0.001" into an Amount. Digits past the
// token precision are truncated, never rounded.
func Parse(value string, decimals int32) (Amount, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Amount{}, fmt.Errorf("%w: empty value", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, value)
	}
	return FromDecimal(d, decimals)
}

// MustParse is Parse for constants known to be valid.
func MustParse(value string, decimals int32) Amount {
	a, err := Parse(value, decimals)
	if err != nil {
		panic(err)
	}
	return a
}

func FromDecimal(d decimal.Decimal, decimals int32) (Amount, error) {
	if decimals < 0 {
		return Amount{}, fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	}
	if d.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %s is negative", ErrInvalidAmount, d.String())
	}
	return Amount{
		wei:      d.Shift(decimals).BigInt(),
		decimals: decimals,
		ether:    d,
	}, nil
}

// FromFloat uses the shortest decimal representation of f, so 0.001 becomes exactly
// 1e15 wei at 18 decimals.
func FromFloat(f float64, decimals int32) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, f)
	}
	return FromDecimal(decimal.NewFromFloat(f), decimals)
}

func FromWei(wei *big.Int, decimals int32) (Amount, error) {
	if wei == nil {
		return Amount{}, fmt.Errorf("%w: wei is nil", ErrInvalidAmount)
	}
	if decimals < 0 {
		return Amount{}, fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	}
	if wei.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %s wei is negative", ErrInvalidAmount, wei.String())
	}
	v := new(big.Int).Set(wei)
	return Amount{
		wei:      v,
		decimals: decimals,
		ether:    decimal.NewFromBigInt(v, -decimals),
	}, nil
}

func (a Amount) Wei() *big.Int {
	if a.wei == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.wei)
}

func (a Amount) Decimals() int32 {
	return a.decimals
}

func (a Amount) Ether() decimal.Decimal {
	return a.ether
}

func (a Amount) EtherFloat() float64 {
	f, _ := a.ether.Float64()
	return f
}

func (a Amount) IsZero() bool {
	return a.wei == nil || a.wei.Sign() == 0
}

// Cmp compares base-unit values; both amounts are expected to share a precision.
func (a Amount) Cmp(b Amount) int {
	return a.Wei().Cmp(b.Wei())
}

func (a Amount) String() string {
	return a.ether.String()
}
