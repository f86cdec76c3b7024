package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"palpiteiro/internal/conference"
	"palpiteiro/internal/model"
	"palpiteiro/internal/service"
)

type createSetRequest struct {
	VariantID     string              `json:"variantId" binding:"required"`
	Kind          model.SetKind       `json:"kind" binding:"required"`
	Combinations  []model.Combination `json:"combinations" binding:"required"`
	TargetContest int                 `json:"targetContest" binding:"required"`
	ContestCount  int                 `json:"contestCount"`
}

type conferRequest struct {
	WinningNumbers []int `json:"winningNumbers" binding:"required"`
}

// CreateSet saves a new combination set in the pending state.
func (h *API) CreateSet(c *gin.Context) {
	var req createSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set, err := h.conferences.SaveSet(c.Request.Context(), service.SaveSetParams{
		VariantID:     req.VariantID,
		Kind:          req.Kind,
		Combinations:  req.Combinations,
		TargetContest: req.TargetContest,
		ContestCount:  req.ContestCount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, setResponse(set))
}

// ListSets returns every saved set, newest first.
func (h *API) ListSets(c *gin.Context) {
	sets, err := h.conferences.ListSets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, len(sets))
	for i := range sets {
		out[i] = setResponse(&sets[i])
	}
	c.JSON(http.StatusOK, gin.H{"sets": out})
}

// GetSet returns one saved set.
func (h *API) GetSet(c *gin.Context) {
	set, err := h.conferences.GetSet(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setResponse(set))
}

// DeleteSet removes a saved set.
func (h *API) DeleteSet(c *gin.Context) {
	if err := h.conferences.DeleteSet(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ConferManually checks a set against user-entered winning numbers. Rejected
// numbers are echoed back so the client can highlight the offending input.
func (h *API) ConferManually(c *gin.Context) {
	var req conferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set, err := h.conferences.ConferManually(c.Request.Context(), c.Param("id"), req.WinningNumbers)
	if err != nil {
		if errors.Is(err, conference.ErrInvalidWinningNumbers) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":          err.Error(),
				"winningNumbers": req.WinningNumbers,
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setResponse(set))
}

// UndoConference removes a manual conference record from a set.
func (h *API) UndoConference(c *gin.Context) {
	set, err := h.conferences.UndoManualConference(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setResponse(set))
}

// CheckSet runs an on-demand official check of one set.
func (h *API) CheckSet(c *gin.Context) {
	set, err := h.conferences.CheckSet(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setResponse(set))
}

// RunAutoCheck triggers a full auto-check pass and reports what it did.
func (h *API) RunAutoCheck(c *gin.Context) {
	report, err := h.conferences.RunAutoCheck(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// setResponse decorates a set with its derived display status.
func setResponse(set *model.SavedSet) gin.H {
	return gin.H{
		"set":    set,
		"status": set.ConferenceStatus(),
	}
}
