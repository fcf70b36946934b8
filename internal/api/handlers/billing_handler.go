package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryceheller922-ship-it/Archaleon/internal/billing"
	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

// BillingHandler serves the plan catalog, hosted-checkout redirects, the
// checkout return page, and the signed subscription webhook.
type BillingHandler struct {
	store         *store.Store
	checkout      *billing.Checkout
	webhookSecret string
}

func NewBillingHandler(s *store.Store, checkout *billing.Checkout, webhookSecret string) *BillingHandler {
	return &BillingHandler{store: s, checkout: checkout, webhookSecret: webhookSecret}
}

// ListPlans returns the plan catalog, optionally filtered by role.
func (h *BillingHandler) ListPlans(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	switch role {
	case "":
		c.JSON(http.StatusOK, gin.H{
			"firm":    billing.FirmPlans,
			"company": billing.CompanyPlans,
		})
	case models.RoleFirm, models.RoleCompany:
		c.JSON(http.StatusOK, billing.PlansForRole(role))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role."})
	}
}

type checkoutRequest struct {
	PlanID   string `json:"planId" binding:"required"`
	Interval string `json:"interval"`
}

// Checkout returns the hosted payment URL for a plan. With no payment links
// configured the upgrade is applied locally instead (demo mode).
func (h *BillingHandler) Checkout(c *gin.Context) {
	user, ok := sessionUser(c, h.store)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan id is required."})
		return
	}
	plan, ok := billing.PlanByID(req.PlanID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown plan."})
		return
	}
	interval := billing.Interval(req.Interval)
	if interval == "" {
		interval = billing.IntervalMonth
	}
	if interval != billing.IntervalMonth && interval != billing.IntervalYear {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Interval must be month or year."})
		return
	}

	checkoutURL, err := h.checkout.URL(plan, interval, user.Email, user.UID)
	if errors.Is(err, billing.ErrNotConfigured) {
		updated, applyErr := h.store.UpdateSubscription(c.Request.Context(), plan.Tier, plan.ID)
		if applyErr != nil {
			respondStoreError(c, applyErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"demo": true, "user": updated})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not build checkout URL."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": checkoutURL})
}

// Return handles the redirect back from the hosted checkout. The outcome is
// read straight off the query string, which is forgeable; the webhook below
// is the verified path.
func (h *BillingHandler) Return(c *gin.Context) {
	result, err := billing.ParseReturn(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !result.Success {
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
		return
	}

	userID := c.Query("client_reference_id")
	if userID == "" {
		userID = c.Query("user")
	}
	if userID == "" {
		if user := h.store.User(); user != nil {
			userID = user.UID
		}
	}
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No user to apply the upgrade to."})
		return
	}

	updated, err := h.store.ApplySubscription(c.Request.Context(), userID, result.Tier, result.PlanID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "user": updated})
}

// Webhook applies subscription events signed by the payment provider.
func (h *BillingHandler) Webhook(c *gin.Context) {
	if h.webhookSecret == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Webhook secret not configured."})
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read request body."})
		return
	}
	if !billing.VerifyHMAC(body, c.GetHeader("X-Signature"), h.webhookSecret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature."})
		return
	}

	var event billing.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed event payload."})
		return
	}
	if event.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event has no client reference id."})
		return
	}

	tier := models.SubscriptionTier(event.Tier)
	if tier == "" {
		if plan, ok := billing.PlanByID(event.PlanID); ok {
			tier = plan.Tier
		}
	}
	switch tier {
	case models.TierFree, models.TierPro, models.TierEnterprise:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event has no usable tier."})
		return
	}

	if _, err := h.store.ApplySubscription(c.Request.Context(), event.UserID, tier, event.PlanID); err != nil {
		log.Printf("[Billing] Failed to apply webhook event %s: %v", event.EventID, err)
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
