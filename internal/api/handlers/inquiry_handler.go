package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

// InquiryHandler handles buyer inquiries and seller decisions on them.
type InquiryHandler struct {
	store *store.Store
}

// NewInquiryHandler creates a new InquiryHandler.
func NewInquiryHandler(s *store.Store) *InquiryHandler {
	return &InquiryHandler{store: s}
}

type createInquiryRequest struct {
	Message    string   `json:"message" binding:"required"`
	OfferPrice *float64 `json:"offerPrice"`
}

// CreateInquiry handles POST /v1/listings/:id/inquiries.
func (h *InquiryHandler) CreateInquiry(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}

	var req createInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.OfferPrice != nil && *req.OfferPrice < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Offer price cannot be negative."})
		return
	}

	inquiry, err := h.store.AddInquiry(c.Request.Context(), c.Param("id"), req.Message, req.OfferPrice)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inquiry)
}

// ListInquiries handles GET /v1/inquiries. ?box=sent returns the caller's
// own inquiries, ?box=received the inquiries on their listings (default).
func (h *InquiryHandler) ListInquiries(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}

	var inquiries []models.Inquiry
	switch c.DefaultQuery("box", "received") {
	case "sent":
		inquiries = h.store.MyInquiries()
	case "received":
		inquiries = h.store.InquiriesForMyListings()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "box must be sent or received"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

type updateInquiryRequest struct {
	Status models.InquiryStatus `json:"status" binding:"required"`
}

// UpdateInquiry handles PATCH /v1/inquiries/:id.
func (h *InquiryHandler) UpdateInquiry(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}

	var req updateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Status != models.InquiryAccepted && req.Status != models.InquiryRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be accepted or rejected."})
		return
	}

	inquiry, err := h.store.UpdateInquiryStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, inquiry)
}
