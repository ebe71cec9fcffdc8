// Package finance holds the pure savings-accrual and collateralized-loan
// calculations. Nothing in this package performs I/O or reads the clock;
// callers pass the query time explicitly.
package finance

import (
	"fmt"
	"strings"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// RateTable maps every premium tier to its annual savings and loan rates, in percent.
type RateTable struct {
	Savings map[models.PremiumTier]decimal.Decimal
	Loan    map[models.PremiumTier]decimal.Decimal
}

// DefaultRates returns the published tier rates.
func DefaultRates() RateTable {
	return RateTable{
		Savings: map[models.PremiumTier]decimal.Decimal{
			models.TierBasic: decimal.NewFromInt(6),
			models.TierPlus:  decimal.NewFromInt(12),
			models.TierVIP:   decimal.NewFromInt(18),
		},
		Loan: map[models.PremiumTier]decimal.Decimal{
			models.TierBasic: decimal.NewFromInt(20),
			models.TierPlus:  decimal.NewFromInt(18),
			models.TierVIP:   decimal.NewFromInt(15),
		},
	}
}

// SavingsRate returns the annual savings rate for tier
func (t RateTable) SavingsRate(tier models.PremiumTier) (decimal.Decimal, error) {
	rate, ok := t.Savings[tier]
	if !ok {
		return decimal.Zero, fmt.Errorf("no savings rate for tier %q", tier)
	}
	return rate, nil
}

// LoanRate returns the annual loan rate for tier
func (t RateTable) LoanRate(tier models.PremiumTier) (decimal.Decimal, error) {
	rate, ok := t.Loan[tier]
	if !ok {
		return decimal.Zero, fmt.Errorf("no loan rate for tier %q", tier)
	}
	return rate, nil
}

// SizingRate is the rate used to size the maximum loan. It is the basic tier's
// loan rate regardless of who is borrowing.
func (t RateTable) SizingRate() (decimal.Decimal, error) {
	return t.LoanRate(models.TierBasic)
}

// Validate checks that every tier has both rates and that each tier's loan
// rate is strictly above its savings rate.
func (t RateTable) Validate() error {
	var violations []string
	for _, tier := range models.Tiers {
		s, err := t.SavingsRate(tier)
		if err != nil {
			return err
		}
		l, err := t.LoanRate(tier)
		if err != nil {
			return err
		}
		if s.IsNegative() || l.IsNegative() {
			return fmt.Errorf("negative rate for tier %q", tier)
		}
		if !l.GreaterThan(s) {
			violations = append(violations, fmt.Sprintf("%s (savings %s%%, loan %s%%)", tier, s, l))
		}
	}
	if len(violations) > 0 {
		return &SpreadError{Tiers: violations}
	}
	return nil
}

// SpreadError lists tiers whose loan rate does not exceed the savings rate
type SpreadError struct {
	Tiers []string
}

func (e *SpreadError) Error() string {
	return "loan rate not above savings rate for " + strings.Join(e.Tiers, ", ")
}

// ParseRates parses "basic=6,plus=12,vip=18" into a per-tier map. Tiers that are
// not named keep the value from base.
func ParseRates(spec string, base map[models.PremiumTier]decimal.Decimal) (map[models.PremiumTier]decimal.Decimal, error) {
	out := make(map[models.PremiumTier]decimal.Decimal, len(base))
	for k, v := range base {
		out[k] = v
	}
	if strings.TrimSpace(spec) == "" {
		return out, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid rate entry %q", pair)
		}
		tier, err := models.ParsePremiumTier(name)
		if err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", tier, err)
		}
		out[tier] = rate
	}
	return out, nil
}
