package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"thumbforge/internal/middleware"
	"thumbforge/internal/service"
)

// upgradeTimedMessage matches the fixed wording the API documents for
// tiers without time-limited link access.
const upgradeTimedMessage = "Upgrade your account, to access time limited thumbnails"

// UploadTimed is the tier-gated time-limited thumbnail operation. The
// tier check happens here, in the calling layer; the service itself
// only re-validates the numeric ranges.
func (h HandlerSet) UploadTimed(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	tier, err := h.resolveTier(c, user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if tier == nil {
		h.respondError(c, service.ErrTierRequired)
		return
	}
	if !tier.TimedLinks {
		c.JSON(http.StatusForbidden, gin.H{"error": upgradeTimedMessage})
		return
	}

	size, ttl, ok := h.readTimedParams(c)
	if !ok {
		return
	}

	filename, data, ok := h.readImageFile(c)
	if !ok {
		return
	}

	result, err := h.imageService.UploadTimed(c.Request.Context(), service.TimedInput{
		Owner:    user,
		Filename: filename,
		Data:     data,
		Size:     size,
		TTL:      ttl,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"thumbnail_size": result.Size,
		"expire_time":    result.TTL,
		"img_url":        result.ImgURL,
	})
}

func (h HandlerSet) readTimedParams(c *gin.Context) (size, ttl int, ok bool) {
	fields := make(map[string]string)

	size, err := strconv.Atoi(c.PostForm("thumbnail_size"))
	if err != nil {
		fields["thumbnail_size"] = "This field is required."
	}
	ttl, err = strconv.Atoi(c.PostForm("expire_time"))
	if err != nil {
		fields["expire_time"] = "This field is required."
	}
	if len(fields) > 0 {
		c.JSON(http.StatusBadRequest, fields)
		return 0, 0, false
	}

	if err := service.ValidateTimedParams(size, ttl); err != nil {
		h.respondError(c, err)
		return 0, 0, false
	}
	return size, ttl, true
}
