package models

import (
	"time"
)

// UserRole distinguishes the two sides of the marketplace.
type UserRole string

const (
	RoleFirm    UserRole = "pe_firm" // private-equity buyer
	RoleCompany UserRole = "company" // seller listing a company
)

// SubscriptionTier controls quotas and feature flags.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

// SubscriptionStatus is the billing status of a subscription.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
)

// Subscription is embedded in a UserProfile and drives entitlement checks.
type Subscription struct {
	Tier             SubscriptionTier   `bson:"tier" json:"tier"`
	PlanID           string             `bson:"plan_id" json:"planId"`
	Status           SubscriptionStatus `bson:"status" json:"status"`
	CurrentPeriodEnd time.Time          `bson:"current_period_end,omitempty" json:"currentPeriodEnd,omitempty"`
}

// DefaultSubscription returns the free-tier subscription new accounts start with.
func DefaultSubscription() *Subscription {
	return &Subscription{Tier: TierFree, Status: SubscriptionActive}
}

// UserProfile represents a user of either role. Role-specific attributes are
// optional and only populated for the matching role.
type UserProfile struct {
	UID           string        `bson:"_id" json:"uid"`
	Name          string        `bson:"name" json:"name"`
	Role          UserRole      `bson:"role" json:"role"`
	Avatar        string        `bson:"avatar" json:"avatar"`
	Email         string        `bson:"email" json:"email"`
	Phone         string        `bson:"phone,omitempty" json:"phone,omitempty"`
	ContactMethod string        `bson:"contact_method,omitempty" json:"contactMethod,omitempty"`
	Description   string        `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt     time.Time     `bson:"created_at" json:"createdAt"`
	Subscription  *Subscription `bson:"subscription,omitempty" json:"subscription,omitempty"`

	// Firm fields
	AUM             string   `bson:"aum,omitempty" json:"aum,omitempty"`
	InvestmentFocus []string `bson:"investment_focus,omitempty" json:"investmentFocus,omitempty"`
	DealSizeMin     string   `bson:"deal_size_min,omitempty" json:"dealSizeMin,omitempty"`
	DealSizeMax     string   `bson:"deal_size_max,omitempty" json:"dealSizeMax,omitempty"`
	YearsExperience string   `bson:"years_experience,omitempty" json:"yearsExperience,omitempty"`
	PortfolioSize   string   `bson:"portfolio_size,omitempty" json:"portfolioSize,omitempty"`
	Website         string   `bson:"website,omitempty" json:"website,omitempty"`
	Location        string   `bson:"location,omitempty" json:"location,omitempty"`

	// Company fields
	Industry         string `bson:"industry,omitempty" json:"industry,omitempty"`
	Revenue          string `bson:"revenue,omitempty" json:"revenue,omitempty"`
	Employees        string `bson:"employees,omitempty" json:"employees,omitempty"`
	Founded          string `bson:"founded,omitempty" json:"founded,omitempty"`
	ReasonForSelling string `bson:"reason_for_selling,omitempty" json:"reasonForSelling,omitempty"`
	CompanyLocation  string `bson:"company_location,omitempty" json:"companyLocation,omitempty"`
}

// Tier returns the user's subscription tier, defaulting to free when the
// profile carries no subscription at all.
func (u *UserProfile) Tier() SubscriptionTier {
	if u == nil || u.Subscription == nil || u.Subscription.Tier == "" {
		return TierFree
	}
	return u.Subscription.Tier
}

// DefaultAvatar returns the placeholder avatar for a role.
func DefaultAvatar(role UserRole) string {
	if role == RoleFirm {
		return "🏛️"
	}
	return "🏢"
}
