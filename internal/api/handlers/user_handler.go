package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryceheller922-ship-it/Archaleon/internal/entitlement"
	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

// UserHandler serves the signed-in user's profile and entitlement summary.
type UserHandler struct {
	store *store.Store
}

func NewUserHandler(s *store.Store) *UserHandler {
	return &UserHandler{store: s}
}

// Me returns the current session's profile.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := sessionUser(c, h.store)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// Entitlements reports what the current subscription tier allows, evaluated
// against the user's live listing count.
func (h *UserHandler) Entitlements(c *gin.Context) {
	user, ok := sessionUser(c, h.store)
	if !ok {
		return
	}
	owned := len(h.store.MyListings())
	limits := entitlement.LimitsFor(h.store.Tier())
	create := entitlement.CanCreateListing(user, owned)
	feature := entitlement.CanFeatureListings(user)

	c.JSON(http.StatusOK, gin.H{
		"tier":             h.store.Tier(),
		"maxListings":      limits.MaxListings,
		"canFeature":       limits.CanFeature,
		"ownedListings":    owned,
		"canCreateListing": create.Allowed,
		"createReason":     create.Reason,
		"canFeatureNow":    feature.Allowed,
		"featureReason":    feature.Reason,
		"verifiedFirm":     entitlement.IsVerifiedFirm(user),
	})
}
