package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"palpiteiro/internal/model"
)

type suggestRequest struct {
	VariantID string `json:"variantId" binding:"required"`
	Count     int    `json:"count"`
}

// ListVariants returns the registered lottery games.
func (h *API) ListVariants(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"variants": model.Variants()})
}

// GetResult returns an official draw for a variant: the latest one, or a
// specific contest when the contest query parameter is present.
func (h *API) GetResult(c *gin.Context) {
	variantID := c.Param("variant")

	raw, ok := c.GetQuery("contest")
	if !ok {
		draw, err := h.suggestions.LatestResult(c.Request.Context(), variantID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, draw)
		return
	}

	contest, err := strconv.Atoi(raw)
	if err != nil || contest < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contest must be a positive integer"})
		return
	}
	draw, err := h.suggestions.Result(c.Request.Context(), variantID, contest)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draw)
}

// Suggest generates combination suggestions for a variant.
func (h *API) Suggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	combinations, err := h.suggestions.Suggest(c.Request.Context(), req.VariantID, req.Count)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"variantId":    req.VariantID,
		"combinations": combinations,
	})
}
