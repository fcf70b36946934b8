package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
)

func companyUser(tier models.SubscriptionTier) *models.UserProfile {
	return &models.UserProfile{
		UID:          "A1B2C3D4E5",
		Role:         models.RoleCompany,
		Subscription: &models.Subscription{Tier: tier},
	}
}

func firmUser(tier models.SubscriptionTier) *models.UserProfile {
	return &models.UserProfile{
		UID:          "F6G7H8J9K0",
		Role:         models.RoleFirm,
		Subscription: &models.Subscription{Tier: tier},
	}
}

func TestCanCreateListing(t *testing.T) {
	t.Run("not signed in", func(t *testing.T) {
		d := CanCreateListing(nil, 0)
		assert.False(t, d.Allowed)
		assert.Contains(t, d.Reason, "signed in")
	})

	t.Run("firms cannot list", func(t *testing.T) {
		d := CanCreateListing(firmUser(models.TierEnterprise), 0)
		assert.False(t, d.Allowed)
		assert.Contains(t, d.Reason, "seller companies")
	})

	t.Run("free under quota", func(t *testing.T) {
		assert.True(t, CanCreateListing(companyUser(models.TierFree), 0).Allowed)
	})

	t.Run("free at quota", func(t *testing.T) {
		d := CanCreateListing(companyUser(models.TierFree), 1)
		assert.False(t, d.Allowed)
		assert.Equal(t, "Free accounts can only create 1 listing. Upgrade to Pro for up to 5 listings.", d.Reason)
	})

	t.Run("pro under quota", func(t *testing.T) {
		assert.True(t, CanCreateListing(companyUser(models.TierPro), 4).Allowed)
	})

	t.Run("pro at quota", func(t *testing.T) {
		d := CanCreateListing(companyUser(models.TierPro), 5)
		assert.False(t, d.Allowed)
		assert.Equal(t, "Pro accounts can create up to 5 listings. Upgrade to Enterprise for unlimited.", d.Reason)
	})

	t.Run("enterprise unbounded", func(t *testing.T) {
		assert.True(t, CanCreateListing(companyUser(models.TierEnterprise), 10000).Allowed)
	})

	t.Run("missing subscription defaults to free", func(t *testing.T) {
		user := &models.UserProfile{UID: "A1B2C3D4E5", Role: models.RoleCompany}
		assert.True(t, CanCreateListing(user, 0).Allowed)
		assert.False(t, CanCreateListing(user, 1).Allowed)
	})
}

func TestCanFeatureListings(t *testing.T) {
	assert.False(t, CanFeatureListings(nil).Allowed)
	assert.False(t, CanFeatureListings(companyUser(models.TierFree)).Allowed)
	assert.True(t, CanFeatureListings(companyUser(models.TierPro)).Allowed)
	assert.True(t, CanFeatureListings(companyUser(models.TierEnterprise)).Allowed)
}

func TestIsVerifiedFirm(t *testing.T) {
	assert.False(t, IsVerifiedFirm(nil))
	assert.False(t, IsVerifiedFirm(firmUser(models.TierFree)))
	assert.True(t, IsVerifiedFirm(firmUser(models.TierPro)))
	assert.True(t, IsVerifiedFirm(firmUser(models.TierEnterprise)))
	// Paid companies are not verified firms.
	assert.False(t, IsVerifiedFirm(companyUser(models.TierEnterprise)))
}
