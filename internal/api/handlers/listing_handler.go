package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

// ListingHandler handles listing CRUD, featuring, and view tracking.
type ListingHandler struct {
	store *store.Store
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(s *store.Store) *ListingHandler {
	return &ListingHandler{store: s}
}

// ListListings handles GET /v1/listings. Featured listings come first, then
// newest first.
func (h *ListingHandler) ListListings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"listings": h.store.SortedListings()})
}

// MyListings handles GET /v1/me/listings: the caller's own listings only.
func (h *ListingHandler) MyListings(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": h.store.MyListings()})
}

// GetListing handles GET /v1/listings/:id.
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, ok := h.store.Listing(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found."})
		return
	}
	c.JSON(http.StatusOK, listing)
}

// CreateListing handles POST /v1/listings.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}

	var input store.ListingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	listing, err := h.store.AddListing(c.Request.Context(), input)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// UpdateListing handles PATCH /v1/listings/:id.
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}

	var update store.ListingUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	listing, err := h.store.UpdateListing(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// DeleteListing handles DELETE /v1/listings/:id.
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}

	if err := h.store.DeleteListing(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// FeatureListing handles POST /v1/listings/:id/feature.
func (h *ListingHandler) FeatureListing(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}

	listing, err := h.store.ToggleListingFeatured(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// TrackView handles POST /v1/listings/:id/view.
func (h *ListingHandler) TrackView(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}

	if err := h.store.TrackView(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RefreshListings handles POST /v1/listings/refresh: an explicit re-pull
// from the remote database.
func (h *ListingHandler) RefreshListings(c *gin.Context) {
	if err := h.store.RefreshListings(c.Request.Context()); err != nil {
		// Local data stays authoritative; tell the caller the pull failed.
		c.JSON(http.StatusBadGateway, gin.H{"error": "Remote refresh failed, serving local data."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": h.store.SortedListings()})
}
