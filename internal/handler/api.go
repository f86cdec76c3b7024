// Package handler provides the JSON HTTP API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"palpiteiro/internal/conference"
	"palpiteiro/internal/repository"
	"palpiteiro/internal/results"
	"palpiteiro/internal/service"
)

// API holds the handler dependencies.
type API struct {
	conferences *service.ConferenceService
	suggestions *service.SuggestionService
}

// NewAPI creates a new API handler.
func NewAPI(conferences *service.ConferenceService, suggestions *service.SuggestionService) *API {
	return &API{
		conferences: conferences,
		suggestions: suggestions,
	}
}

// RegisterRoutes registers all the application routes.
func (h *API) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/variants", h.ListVariants)
	api.GET("/results/:variant", h.GetResult)
	api.POST("/suggestions", h.Suggest)

	api.POST("/sets", h.CreateSet)
	api.GET("/sets", h.ListSets)
	api.GET("/sets/:id", h.GetSet)
	api.DELETE("/sets/:id", h.DeleteSet)

	api.POST("/sets/:id/conference", h.ConferManually)
	api.DELETE("/sets/:id/conference", h.UndoConference)
	api.POST("/sets/:id/check", h.CheckSet)
	api.POST("/conference/run", h.RunAutoCheck)
}

// respondError maps service and engine errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrSavedSetNotFound),
		errors.Is(err, repository.ErrDrawNotFound),
		errors.Is(err, results.ErrResultNotAvailable):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, conference.ErrConferenceLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, conference.ErrInvalidWinningNumbers):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnknownVariant),
		errors.Is(err, service.ErrInvalidSavedSet),
		errors.Is(err, conference.ErrWrongKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
