package core

import "strings"

// MembershipTier classifies a reader and determines the borrowing entitlements at registration.
type MembershipTier string

const (
	TierStudent MembershipTier = "Student"
	TierTeacher MembershipTier = "Teacher"
	TierStaff   MembershipTier = "Staff"
)

// Entitlements is the pair of borrowing limits a reader receives for a tier.
type Entitlements struct {
	MaxBooks           int
	BorrowDurationDays int
}

var entitlementsByTier = map[MembershipTier]Entitlements{
	TierStudent: {MaxBooks: 3, BorrowDurationDays: 14},
	TierTeacher: {MaxBooks: 5, BorrowDurationDays: 30},
	TierStaff:   {MaxBooks: 5, BorrowDurationDays: 30},
}

// EntitlementsFor returns the fixed entitlements for a membership tier.
// Unknown tiers fail with an *InvalidTierError instead of falling back to the Student entitlements.
func EntitlementsFor(tier MembershipTier) (Entitlements, error) {
	entitlements, ok := entitlementsByTier[tier]
	if !ok {
		return Entitlements{}, &InvalidTierError{Tier: string(tier)}
	}

	return entitlements, nil
}

// ParseMembershipTier maps user or API input like "student" or " Teacher " to a MembershipTier.
func ParseMembershipTier(raw string) (MembershipTier, error) {
	normalized := strings.TrimSpace(raw)

	for tier := range entitlementsByTier {
		if strings.EqualFold(string(tier), normalized) {
			return tier, nil
		}
	}

	return "", &InvalidTierError{Tier: raw}
}
