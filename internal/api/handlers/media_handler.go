package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bryceheller922-ship-it/Archaleon/internal/storage"
	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

// MediaHandler issues presigned upload URLs for profile and listing media.
type MediaHandler struct {
	store   *store.Store
	storage storage.IS3Storage
}

func NewMediaHandler(s *store.Store, st storage.IS3Storage) *MediaHandler {
	return &MediaHandler{store: s, storage: st}
}

// UploadURL returns a presigned PUT URL the client uploads the file to
// directly, plus the object key to store on the profile or listing.
func (h *MediaHandler) UploadURL(c *gin.Context) {
	user, ok := sessionUser(c, h.store)
	if !ok {
		return
	}
	if h.storage == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Media storage is not configured."})
		return
	}

	var kind storage.MediaKind
	switch c.Query("kind") {
	case "logo":
		kind = storage.MediaLogo
	case "cover":
		kind = storage.MediaCover
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kind must be logo or cover."})
		return
	}

	filename := c.Query("filename")
	contentType := c.Query("contentType")
	if filename == "" || contentType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filename and contentType are required."})
		return
	}

	url, key, err := h.storage.GeneratePresignedPutURL(c.Request.Context(), user.UID, kind, filename, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create upload URL."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "key": key})
}
