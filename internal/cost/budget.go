// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cost

import "fmt"

// =============================================================================
// BUDGET TIERS
// =============================================================================

// Tier names a budget profile bundling daily and per-run spend limits.
type Tier string

const (
	TierDevelopment Tier = "development"
	TierDemo        Tier = "demo"
	TierProduction  Tier = "production"
)

// ParseTier converts a string to a Tier, failing on unknown names.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierDevelopment, TierDemo, TierProduction:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown budget tier: %q (want development, demo, or production)", s)
}

// Budget holds spend limits for one tier. Limits are USD; the warning
// threshold is a fraction of the respective limit.
type Budget struct {
	Tier             Tier
	DailyLimit       float64
	PerRunLimit      float64
	WarningThreshold float64
	AutoStop         bool
}

var budgetTiers = map[Tier]Budget{
	TierDevelopment: {
		Tier:             TierDevelopment,
		DailyLimit:       5.0,
		PerRunLimit:      1.0,
		WarningThreshold: 0.8,
		AutoStop:         true,
	},
	TierDemo: {
		Tier:             TierDemo,
		DailyLimit:       25.0,
		PerRunLimit:      10.0,
		WarningThreshold: 0.75,
		AutoStop:         false,
	},
	TierProduction: {
		Tier:             TierProduction,
		DailyLimit:       100.0,
		PerRunLimit:      50.0,
		WarningThreshold: 0.9,
		AutoStop:         false,
	},
}

// BudgetForTier returns the compiled-in budget for a tier. Unknown
// tiers get the development budget, the most conservative profile.
func BudgetForTier(tier Tier) Budget {
	if b, ok := budgetTiers[tier]; ok {
		return b
	}
	return budgetTiers[TierDevelopment]
}
