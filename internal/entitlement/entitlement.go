// Package entitlement derives what a user may do from their subscription
// tier. Everything here is a pure function of its inputs; nothing is cached,
// so a subscription change takes effect at the next decision point.
package entitlement

import (
	"fmt"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
)

// Limits is what a subscription tier grants.
type Limits struct {
	// MaxListings is the number of concurrently owned listings, or Unlimited.
	MaxListings int
	CanFeature  bool
}

// Unlimited marks a tier with no listing quota.
const Unlimited = -1

var tierLimits = map[models.SubscriptionTier]Limits{
	models.TierFree:       {MaxListings: 1, CanFeature: false},
	models.TierPro:        {MaxListings: 5, CanFeature: true},
	models.TierEnterprise: {MaxListings: Unlimited, CanFeature: true},
}

// LimitsFor returns the limits for a tier. Unknown tiers get free limits.
func LimitsFor(tier models.SubscriptionTier) Limits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[models.TierFree]
}

// Decision is the outcome of an entitlement check. Reason is set only when
// the action is denied.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanCreateListing decides whether the user may create one more listing,
// given how many they currently own.
func CanCreateListing(user *models.UserProfile, ownedCount int) Decision {
	if user == nil {
		return deny("You must be signed in to create a listing.")
	}
	if user.Role != models.RoleCompany {
		return deny("Only seller companies can create listings.")
	}

	limits := LimitsFor(user.Tier())
	if limits.MaxListings == Unlimited || ownedCount < limits.MaxListings {
		return allow()
	}

	switch user.Tier() {
	case models.TierFree:
		return deny("Free accounts can only create 1 listing. Upgrade to Pro for up to 5 listings.")
	default:
		return deny(fmt.Sprintf("Pro accounts can create up to %d listings. Upgrade to Enterprise for unlimited.", limits.MaxListings))
	}
}

// CanFeatureListings decides whether the user may feature their listings.
func CanFeatureListings(user *models.UserProfile) Decision {
	if user == nil {
		return deny("You must be signed in.")
	}
	if !LimitsFor(user.Tier()).CanFeature {
		return deny("Featured listings require a Pro or Enterprise subscription.")
	}
	return allow()
}

// IsVerifiedFirm reports whether the user is a buyer firm on a paid tier.
func IsVerifiedFirm(user *models.UserProfile) bool {
	if user == nil || user.Role != models.RoleFirm {
		return false
	}
	tier := user.Tier()
	return tier == models.TierPro || tier == models.TierEnterprise
}
