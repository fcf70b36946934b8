package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

// AuthHandler handles sign-up, sign-in, sign-out, and password resets.
type AuthHandler struct {
	store *store.Store
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(s *store.Store) *AuthHandler {
	return &AuthHandler{store: s}
}

type signUpRequest struct {
	Email    string          `json:"email" binding:"required"`
	Password string          `json:"password" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Role     models.UserRole `json:"role" binding:"required"`

	// Optional profile details, role-specific.
	Phone            string   `json:"phone"`
	ContactMethod    string   `json:"contactMethod"`
	Description      string   `json:"description"`
	AUM              string   `json:"aum"`
	InvestmentFocus  []string `json:"investmentFocus"`
	DealSizeMin      string   `json:"dealSizeMin"`
	DealSizeMax      string   `json:"dealSizeMax"`
	Industry         string   `json:"industry"`
	Revenue          string   `json:"revenue"`
	Employees        string   `json:"employees"`
	Founded          string   `json:"founded"`
	ReasonForSelling string   `json:"reasonForSelling"`
	Location         string   `json:"location"`
}

// SignUp handles POST /v1/auth/signup.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Role != models.RoleFirm && req.Role != models.RoleCompany {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role must be pe_firm or company."})
		return
	}

	seed := models.UserProfile{
		Name:             req.Name,
		Role:             req.Role,
		Phone:            req.Phone,
		ContactMethod:    req.ContactMethod,
		Description:      req.Description,
		AUM:              req.AUM,
		InvestmentFocus:  req.InvestmentFocus,
		DealSizeMin:      req.DealSizeMin,
		DealSizeMax:      req.DealSizeMax,
		Industry:         req.Industry,
		Revenue:          req.Revenue,
		Employees:        req.Employees,
		Founded:          req.Founded,
		ReasonForSelling: req.ReasonForSelling,
	}
	switch req.Role {
	case models.RoleFirm:
		seed.Location = req.Location
	case models.RoleCompany:
		seed.CompanyLocation = req.Location
	}

	profile, token, err := h.store.SignUp(c.Request.Context(), req.Email, req.Password, seed)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": profile, "token": token})
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignIn handles POST /v1/auth/signin.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	profile, token, err := h.store.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile, "token": token})
}

// SignOut handles POST /v1/auth/signout.
func (h *AuthHandler) SignOut(c *gin.Context) {
	if err := h.store.SignOut(c.Request.Context()); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type resetPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPassword handles POST /v1/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.store.ResetPassword(c.Request.Context(), req.Email); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type confirmResetRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ConfirmReset handles POST /v1/auth/reset-password/confirm. It consumes
// the token mailed by ResetPassword and sets the new password.
func (h *AuthHandler) ConfirmReset(c *gin.Context) {
	var req confirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.store.CompletePasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
