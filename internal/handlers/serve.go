package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServeImage renders the image behind a public slug. Expired
// time-limited links answer with an expired indicator instead of the
// bytes; the asset itself is not purged here.
func (h HandlerSet) ServeImage(c *gin.Context) {
	result, err := h.imageService.Serve(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if result.Expired {
		c.JSON(http.StatusGone, gin.H{"detail": "Image link expired"})
		return
	}

	c.Data(http.StatusOK, result.ContentType, result.Data)
}
