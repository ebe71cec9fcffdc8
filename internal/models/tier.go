package models

import (
	"fmt"
	"strings"
)

// PremiumTier is the user classification that parameterizes savings and loan rates
type PremiumTier string

const (
	TierBasic PremiumTier = "basic"
	TierPlus  PremiumTier = "plus"
	TierVIP   PremiumTier = "vip"
)

// Tiers lists every supported tier in ascending order
var Tiers = []PremiumTier{TierBasic, TierPlus, TierVIP}

// ParsePremiumTier converts a stored or configured tier name to a PremiumTier
func ParsePremiumTier(s string) (PremiumTier, error) {
	switch t := PremiumTier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierBasic, TierPlus, TierVIP:
		return t, nil
	}
	return "", fmt.Errorf("unknown premium tier %q", s)
}
