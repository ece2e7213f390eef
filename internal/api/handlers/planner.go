package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/prompt"
	"github.com/dom/jumbah-travel/internal/service"
)

type PlannerHandler struct {
	plannerService *service.PlannerService
}

func NewPlannerHandler(plannerService *service.PlannerService) *PlannerHandler {
	return &PlannerHandler{plannerService: plannerService}
}

// flexInt accepts a JSON number or a numeric string. Empty strings and null
// decode to zero.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	var n json.Number
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n = json.Number(s)
	} else if err := json.Unmarshal(data, &n); err != nil {
		return err
	}

	v, err := strconv.Atoi(n.String())
	if err != nil {
		return fmt.Errorf("not a whole number: %q", n)
	}
	*f = flexInt(v)
	return nil
}

// flexString accepts a JSON string or number, so a budget of 1500 and
// "1500" mean the same thing.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexStrings accepts a list of strings or a single comma-separated string.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*f = out
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*f = list
	return nil
}

type ItineraryRequest struct {
	Duration      flexString  `json:"duration"`
	Budget        flexString  `json:"budget"`
	Interests     flexStrings `json:"interests"`
	Accommodation string      `json:"accommodation"`
	GroupSize     flexInt     `json:"group_size"`
}

type FlightRequest struct {
	Origin        string  `json:"origin"`
	DepartureDate string  `json:"departure_date"`
	ReturnDate    string  `json:"return_date"`
	Passengers    flexInt `json:"passengers"`
	FlightClass   string  `json:"flight_class"`
}

type RecommendationRequest struct {
	Query     string      `json:"query"`
	Interests flexStrings `json:"interests"`
	Budget    flexString  `json:"budget"`
	Duration  flexString  `json:"duration"`
}

type ItineraryResponse struct {
	Success   bool   `json:"success"`
	Itinerary string `json:"itinerary"`
}

type RecommendationsResponse struct {
	Success         bool   `json:"success"`
	Recommendations string `json:"recommendations"`
}

func (h *PlannerHandler) Itinerary(w http.ResponseWriter, r *http.Request) {
	var req ItineraryRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	text, err := h.plannerService.Itinerary(r.Context(), prompt.ItineraryParams{
		Duration:      string(req.Duration),
		Budget:        string(req.Budget),
		Interests:     req.Interests,
		Accommodation: req.Accommodation,
		GroupSize:     int(req.GroupSize),
	})
	if err != nil {
		planError(w, "handlers.Itinerary", "Failed to generate itinerary", err)
		return
	}
	JSON(w, http.StatusOK, ItineraryResponse{Success: true, Itinerary: text})
}

func (h *PlannerHandler) Flights(w http.ResponseWriter, r *http.Request) {
	var req FlightRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	text, err := h.plannerService.Flights(r.Context(), prompt.FlightParams{
		Origin:        req.Origin,
		DepartureDate: req.DepartureDate,
		ReturnDate:    req.ReturnDate,
		Passengers:    int(req.Passengers),
		FlightClass:   req.FlightClass,
	})
	if err != nil {
		planError(w, "handlers.Flights", "Failed to get flight recommendations", err)
		return
	}
	JSON(w, http.StatusOK, RecommendationsResponse{Success: true, Recommendations: text})
}

func (h *PlannerHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req RecommendationRequest
	if err := decode(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	text, err := h.plannerService.Recommendations(r.Context(), prompt.RecommendationParams{
		Query:     req.Query,
		Interests: req.Interests,
		Budget:    string(req.Budget),
		Duration:  string(req.Duration),
	})
	if err != nil {
		planError(w, "handlers.Recommendations", "Failed to get travel recommendations", err)
		return
	}
	JSON(w, http.StatusOK, RecommendationsResponse{Success: true, Recommendations: text})
}

func planError(w http.ResponseWriter, op, failure string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPlanRequest):
		// the wrapped detail names the offending field
		Error(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrInvalidPlanRequest.Error()+": "))
	case errors.Is(err, genai.ErrUnavailable):
		Error(w, http.StatusServiceUnavailable, "AI service is currently unavailable")
	default:
		slog.Error(op+": generation failed", "error", err)
		Error(w, http.StatusInternalServerError, failure)
	}
}
