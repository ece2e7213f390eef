package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/jumbah-travel/internal/service"
)

type SystemHandler struct {
	healthService     *service.HealthService
	attractionService *service.AttractionService
}

func NewSystemHandler(healthService *service.HealthService, attractionService *service.AttractionService) *SystemHandler {
	return &SystemHandler{healthService: healthService, attractionService: attractionService}
}

// Health always answers 200; degradation is reported in the body.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.healthService.Check(r.Context()))
}

func (h *SystemHandler) Attractions(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.attractionService.Catalog()
	if err != nil {
		if errors.Is(err, service.ErrAttractionsUnavailable) {
			Error(w, http.StatusNotFound, "Attractions data not available")
			return
		}
		slog.Error("handlers.Attractions: failed", "error", err)
		Error(w, http.StatusInternalServerError, "Failed to load attractions")
		return
	}
	JSON(w, http.StatusOK, catalog)
}

func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the JumBah Sabah travel API",
		"service": service.ServiceName,
	})
}
