package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

// ChatHandler serves conversations and messages for the signed-in user.
type ChatHandler struct {
	store *store.Store
}

func NewChatHandler(s *store.Store) *ChatHandler {
	return &ChatHandler{store: s}
}

type startConversationRequest struct {
	Other       models.Participant `json:"other" binding:"required"`
	ListingID   string             `json:"listingId"`
	ListingName string             `json:"listingName"`
}

// StartConversation opens (or returns the existing) thread with another user.
func (h *ChatHandler) StartConversation(c *gin.Context) {
	user, ok := sessionUser(c, h.store)
	if !ok {
		return
	}
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body."})
		return
	}
	if req.Other.ID == "" || req.Other.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Conversation partner is required."})
		return
	}
	if req.Other.ID == user.UID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Conversation partner must be another user."})
		return
	}
	conv, err := h.store.StartConversation(c.Request.Context(), req.Other, req.ListingID, req.ListingName)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

// ListConversations returns the caller's threads, most recent first.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}
	c.JSON(http.StatusOK, h.store.Conversations())
}

// GetConversation returns a single thread the caller participates in.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}
	conv, ok := h.store.Conversation(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found."})
		return
	}
	c.JSON(http.StatusOK, conv)
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// SendMessage appends a message to a conversation the caller participates in.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content is required."})
		return
	}
	msg, err := h.store.SendMessage(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// MarkRead clears the unread counter on a conversation.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	if _, ok := sessionUser(c, h.store); !ok {
		return
	}
	if err := h.store.MarkConversationRead(c.Request.Context(), c.Param("id")); err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation marked as read."})
}
