package billing

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
)

func TestPlanCatalog(t *testing.T) {
	plan, ok := PlanByID("pe_pro")
	require.True(t, ok)
	assert.Equal(t, models.TierPro, plan.Tier)
	assert.Equal(t, 299.0, plan.Price)
	assert.Equal(t, 2870.0, plan.YearlyPrice)

	_, ok = PlanByID("gold_plated")
	assert.False(t, ok)

	for _, p := range PlansForRole(models.RoleFirm) {
		assert.Equal(t, models.RoleFirm, p.ForRole)
	}
	for _, p := range PlansForRole(models.RoleCompany) {
		assert.Equal(t, models.RoleCompany, p.ForRole)
	}
}

func TestCheckoutURL(t *testing.T) {
	checkout := NewCheckout(map[string]string{
		"pe_pro_month": "https://pay.example.com/b/abc123",
	})
	plan, _ := PlanByID("pe_pro")

	got, err := checkout.URL(plan, IntervalMonth, "deals@summit.com", "F1RM000001")
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "pay.example.com", u.Host)
	assert.Equal(t, "deals@summit.com", u.Query().Get("prefilled_email"))
	assert.Equal(t, "F1RM000001", u.Query().Get("client_reference_id"))
}

func TestCheckoutURLNotConfigured(t *testing.T) {
	checkout := NewCheckout(nil)
	plan, _ := PlanByID("pe_pro")

	_, err := checkout.URL(plan, IntervalYear, "deals@summit.com", "F1RM000001")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, checkout.Configured())
}

func TestParseReturn(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		q := url.Values{"payment": {"success"}, "plan": {"company_pro"}, "tier": {"pro"}}
		result, err := ParseReturn(q)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "company_pro", result.PlanID)
		assert.Equal(t, models.TierPro, result.Tier)
	})

	t.Run("tier defaults from plan", func(t *testing.T) {
		q := url.Values{"payment": {"success"}, "plan": {"pe_enterprise"}}
		result, err := ParseReturn(q)
		require.NoError(t, err)
		assert.Equal(t, models.TierEnterprise, result.Tier)
	})

	t.Run("cancelled", func(t *testing.T) {
		result, err := ParseReturn(url.Values{"payment": {"cancelled"}})
		require.NoError(t, err)
		assert.False(t, result.Success)
	})

	t.Run("unknown outcome", func(t *testing.T) {
		_, err := ParseReturn(url.Values{"payment": {"maybe"}})
		assert.Error(t, err)
	})

	t.Run("unknown plan", func(t *testing.T) {
		q := url.Values{"payment": {"success"}, "plan": {"gold_plated"}}
		_, err := ParseReturn(q)
		assert.Error(t, err)
	})

	t.Run("unknown tier", func(t *testing.T) {
		q := url.Values{"payment": {"success"}, "plan": {"pe_pro"}, "tier": {"platinum"}}
		_, err := ParseReturn(q)
		assert.Error(t, err)
	})
}

func TestWebhookSignature(t *testing.T) {
	body := []byte(`{"type":"checkout.completed","clientReferenceId":"F1RM000001"}`)
	secret := "whsec_test"

	signature := Sign(body, secret)
	assert.True(t, VerifyHMAC(body, signature, secret))
	assert.False(t, VerifyHMAC(body, signature, "other-secret"))
	assert.False(t, VerifyHMAC([]byte("tampered"), signature, secret))
	assert.False(t, VerifyHMAC(body, "not-hex", secret))
}
