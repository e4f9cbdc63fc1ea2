package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"thumbforge/internal/ids"
	"thumbforge/internal/models"
)

func (h HandlerSet) AdminListImages(c *gin.Context) {
	limit := 50
	offset := 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	images, err := h.images.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]gin.H, 0, len(images))
	for _, img := range images {
		items = append(items, gin.H{
			"id":            img.ID,
			"ownerId":       img.OwnerID,
			"thumbnailSize": img.ThumbnailSize,
			"slug":          img.Slug,
			"expireSeconds": img.ExpireSeconds,
			"createdAt":     img.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h HandlerSet) AdminListTiers(c *gin.Context) {
	tiers, err := h.tiers.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]gin.H, 0, len(tiers))
	for _, tier := range tiers {
		items = append(items, gin.H{
			"id":             tier.ID,
			"name":           tier.Name,
			"thumbnailSizes": tier.ThumbnailSizes,
			"keepOriginal":   tier.KeepOriginal,
			"timedLinks":     tier.TimedLinks,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

type createTierRequest struct {
	Name           string `json:"name" binding:"required"`
	ThumbnailSizes []int  `json:"thumbnailSizes"`
	KeepOriginal   bool   `json:"keepOriginal"`
	TimedLinks     bool   `json:"timedLinks"`
}

func (h HandlerSet) AdminCreateTier(c *gin.Context) {
	var req createTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	// Sizes may be empty (a tier that derives nothing) but never
	// non-positive.
	for _, size := range req.ThumbnailSizes {
		if size <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"thumbnailSizes": "sizes must be positive integers"})
			return
		}
	}

	tier := models.AccountTier{
		ID:             ids.New(),
		Name:           req.Name,
		ThumbnailSizes: req.ThumbnailSizes,
		KeepOriginal:   req.KeepOriginal,
		TimedLinks:     req.TimedLinks,
	}
	if err := h.tiers.Create(c.Request.Context(), tier); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": tier.ID})
}
