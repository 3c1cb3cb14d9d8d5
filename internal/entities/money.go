package entities

import (
	"fmt"
	"math"
)

// Fee is the platform share of a payment amount.
type Fee struct {
	Percentage float64 `json:"percentage"`
	Platform   int64   `json:"platform_fee"`
	Net        int64   `json:"net_amount"`
}

func ValidateFeePercentage(pct float64) error {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return Errorf(ErrValidation, "platform fee percentage %v is outside [0, 100]", pct)
	}

	return nil
}

// ComputeFee is the only place platform fee and net amount are derived.
// Amounts are in minor currency units.
func ComputeFee(amount int64, pct float64) Fee {
	platform := int64(math.Round(float64(amount) * pct / 100))

	return Fee{
		Percentage: pct,
		Platform:   platform,
		Net:        amount - platform,
	}
}

// FormatAmount prints minor units as a decimal amount, e.g. 12050 INR -> "120.50 INR".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, currency)
}
