package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"thumbforge/internal/middleware"
	"thumbforge/internal/service"
)

func (h HandlerSet) ListImages(c *gin.Context) {
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

	views, err := h.imageService.List(c.Request.Context(), user, tier)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h HandlerSet) GetImage(c *gin.Context) {
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

	view, err := h.imageService.Get(c.Request.Context(), user, tier, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h HandlerSet) UploadImage(c *gin.Context) {
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

	filename, data, ok := h.readImageFile(c)
	if !ok {
		return
	}

	result, err := h.imageService.Upload(c.Request.Context(), service.UploadInput{
		Owner:    user,
		Tier:     tier,
		Filename: filename,
		Data:     data,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         result.Original.ID,
		"img_url":    result.ImgURL,
		"img_size":   result.ImgSize,
		"thumbnails": result.Thumbnails,
	})
}

// readImageFile pulls the multipart "image" field, enforcing the upload
// size limit before the bytes ever reach the service.
func (h HandlerSet) readImageFile(c *gin.Context) (string, []byte, bool) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"image": "No file was submitted."})
		return "", nil, false
	}
	defer file.Close()

	if max := h.cfg.Upload.MaxBytes; max > 0 && header.Size > max {
		c.JSON(http.StatusBadRequest, gin.H{"image": "file too large"})
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"image": "could not read file"})
		return "", nil, false
	}
	return header.Filename, data, true
}
