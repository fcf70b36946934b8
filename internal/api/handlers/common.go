package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryceheller922-ship-it/Archaleon/internal/api/middleware"
	"github.com/bryceheller922-ship-it/Archaleon/internal/identity"
	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

// respondStoreError translates store errors into HTTP responses.
func respondStoreError(c *gin.Context, err error) {
	var denied *store.DeniedError
	var authErr *store.AuthError
	switch {
	case errors.Is(err, store.ErrNotSignedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "You must be signed in."})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
	case errors.Is(err, store.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this resource."})
	case errors.Is(err, store.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrInvalidParticipant):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Conversation partner must be another user."})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": denied.Reason})
	case errors.As(err, &authErr):
		c.JSON(authErrorStatus(authErr), gin.H{"error": authErr.Message, "reason": authErr.Reason})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong."})
	}
}

// authErrorStatus maps auth error reasons to status codes.
func authErrorStatus(err *store.AuthError) int {
	switch identity.Code(err.Reason) {
	case identity.CodeDuplicateIdentity:
		return http.StatusConflict
	case identity.CodeWeakCredential, identity.CodeInvalidIdentity, identity.CodeInvalidToken:
		return http.StatusBadRequest
	case identity.CodeTooManyAttempts:
		return http.StatusTooManyRequests
	case identity.CodeNotFound:
		return http.StatusNotFound
	case identity.CodeWrongCredential:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// sessionUser resolves the authenticated caller against the store's session
// user. The snapshot holds a single session, so the token must belong to it.
func sessionUser(c *gin.Context, s *store.Store) (*models.UserProfile, bool) {
	userID := c.GetString(middleware.ContextKeyUserID)
	user := s.User()
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No active session."})
		return nil, false
	}
	if user.UID != userID {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Token does not match the active session."})
		return nil, false
	}
	return user, true
}
