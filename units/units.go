// Package units converts between human-readable decimal amounts and the
// integer base units the ledger operates on.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a denomination, expressed as the number of decimal places between it
// and the ledger's base unit.
type Unit int32

const (
	Wei   Unit = 0
	Gwei  Unit = 9
	Ether Unit = 18

	// Major is the denomination prices are quoted in.
	Major = Ether
)

var (
	// ErrInvalidAmount is returned for strings that are not non-negative decimals.
	ErrInvalidAmount = errors.New("invalid decimal amount")

	// ErrTooManyDecimals is returned when an amount is more precise than the base unit.
	ErrTooManyDecimals = errors.New("amount has more decimals than the unit allows")

	amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
)

// Decimals returns the number of decimal places of the unit.
func (u Unit) Decimals() int32 {
	return int32(u)
}

// String returns unit name.
func (u Unit) String() string {
	switch u {
	case Wei:
		return "wei"
	case Gwei:
		return "gwei"
	case Ether:
		return "ether"
	default:
		return fmt.Sprintf("1e%d", int32(u))
	}
}

// ParseDecimalToBaseUnits converts a decimal amount denominated in unit to an
// integer number of base units. "1.5" in Ether yields 1500000000000000000.
// Signs, exponents, and empty strings are rejected.
func ParseDecimalToBaseUnits(amount string, unit Unit) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if !amountPattern.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	if dot := strings.IndexByte(s, '.'); dot >= 0 && int32(len(s)-dot-1) > unit.Decimals() {
		return nil, fmt.Errorf("%w: %q in %s", ErrTooManyDecimals, amount, unit)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	scaled := d.Mul(decimal.New(1, unit.Decimals()))
	return scaled.BigInt(), nil
}

// FormatBaseUnits renders an integer amount of base units in unit, without
// trailing zeros.
func FormatBaseUnits(value *big.Int, unit Unit) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -unit.Decimals()).String()
}
