// Package billing handles subscriptions through a hosted checkout provider.
// There is no payment API integration: users are redirected to preconfigured
// payment links, and entitlement changes come back either through the
// return URL (trusted, demo-grade) or the signed webhook.
package billing

import (
	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
)

// Interval is a billing period.
type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

// Plan is one subscription offering for one role.
type Plan struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Tier        models.SubscriptionTier `json:"tier"`
	Price       float64                 `json:"price"`
	YearlyPrice float64                 `json:"yearlyPrice"`
	ForRole     models.UserRole         `json:"forRole"`
	Features    []string                `json:"features"`
}

// FirmPlans are the buyer-side offerings.
var FirmPlans = []Plan{
	{
		ID:      "pe_free",
		Name:    "Starter",
		Tier:    models.TierFree,
		ForRole: models.RoleFirm,
		Features: []string{
			"Browse all listings",
			"Send up to 5 inquiries/month",
			"Basic messaging",
			"Standard support",
		},
	},
	{
		ID:          "pe_pro",
		Name:        "Professional",
		Tier:        models.TierPro,
		Price:       299,
		YearlyPrice: 2870,
		ForRole:     models.RoleFirm,
		Features: []string{
			"Unlimited inquiries",
			"Verified firm badge",
			"Priority in seller inquiries",
			"Advanced deal analytics",
			"Direct phone support",
			"Early access to new listings",
		},
	},
	{
		ID:          "pe_enterprise",
		Name:        "Enterprise",
		Tier:        models.TierEnterprise,
		Price:       999,
		YearlyPrice: 9590,
		ForRole:     models.RoleFirm,
		Features: []string{
			"Everything in Professional",
			"Exclusive off-market deals",
			"White-glove concierge service",
			"Custom deal sourcing",
			"Dedicated account manager",
			"Priority deal flow alerts",
			"API access",
		},
	},
}

// CompanyPlans are the seller-side offerings.
var CompanyPlans = []Plan{
	{
		ID:      "company_free",
		Name:    "Basic",
		Tier:    models.TierFree,
		ForRole: models.RoleCompany,
		Features: []string{
			"1 active listing",
			"Basic analytics",
			"Standard visibility",
			"Email support",
		},
	},
	{
		ID:          "company_pro",
		Name:        "Growth",
		Tier:        models.TierPro,
		Price:       199,
		YearlyPrice: 1910,
		ForRole:     models.RoleCompany,
		Features: []string{
			"Up to 5 active listings",
			"Featured listing badge",
			"Priority placement in search",
			"Advanced analytics dashboard",
			"Buyer insights & reports",
			"Priority support",
		},
	},
	{
		ID:          "company_enterprise",
		Name:        "Premium",
		Tier:        models.TierEnterprise,
		Price:       499,
		YearlyPrice: 4790,
		ForRole:     models.RoleCompany,
		Features: []string{
			"Unlimited listings",
			"All listings featured",
			"Top placement guarantee",
			"Dedicated M&A advisor",
			"Custom marketing materials",
			"Investor matching service",
			"White-glove support",
		},
	},
}

// PlanByID looks a plan up across both catalogs.
func PlanByID(planID string) (Plan, bool) {
	for _, p := range FirmPlans {
		if p.ID == planID {
			return p, true
		}
	}
	for _, p := range CompanyPlans {
		if p.ID == planID {
			return p, true
		}
	}
	return Plan{}, false
}

// PlansForRole returns the catalog for one side of the marketplace.
func PlansForRole(role models.UserRole) []Plan {
	if role == models.RoleFirm {
		return FirmPlans
	}
	return CompanyPlans
}
