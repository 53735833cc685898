package processor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DefaultDecimals is used when a transfer carries no decimals at all
	DefaultDecimals = 18
	// MaxDecimals is the largest token precision accepted
	MaxDecimals = 36
)

var (
	ErrInvalidAmount      = errors.New("invalid token amount")
	ErrDecimalsOutOfRange = errors.New("token decimals out of range")
)

// NormalizeAmount converts a raw integer token amount into whole tokens.
// The division is exact; only the final conversion to float64 rounds,
// which keeps ~15 significant digits. That is plenty for fiat display.
func NormalizeAmount(raw string, decimals int) (float64, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return 0, fmt.Errorf("%w: %d", ErrDecimalsOutOfRange, decimals)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	if amount.IsNegative() {
		return 0, fmt.Errorf("%w: negative %q", ErrInvalidAmount, raw)
	}

	return amount.Shift(int32(-decimals)).InexactFloat64(), nil
}
