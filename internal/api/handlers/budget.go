package handlers

import (
	"net/http"

	"github.com/anniversary-planner/backend/internal/catering"
	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

// CateringResponse is the per-event breakdown with plate costs.
type CateringResponse struct {
	Events map[models.EventKey]models.EventCatering `json:"events"`
	Order  []models.EventKey                         `json:"order"`
	Gala   models.EventKey                           `json:"gala"`
	Adults int                                       `json:"adults"`
	Kids   int                                       `json:"kids"`
	Cost   catering.CostSummary                      `json:"cost"`
	Notes  []string                                  `json:"dietaryNotes"`
}

// GetCatering returns the catering breakdown.
func GetCatering(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := c.Snapshot()
		b := c.Breakdown()
		notes := catering.DietaryNotes(snap.Guests)
		if notes == nil {
			notes = []string{}
		}
		writeJSON(w, http.StatusOK, CateringResponse{
			Events: b.Events,
			Order:  models.EventKeys,
			Gala:   models.GalaEvent,
			Adults: b.Adults,
			Kids:   b.Kids,
			Cost:   catering.Cost(b, snap.Budget),
			Notes:  notes,
		})
	}
}

// BudgetResponse is the budget record with its cost summary.
type BudgetResponse struct {
	models.Budget
	Cost catering.CostSummary `json:"cost"`
}

// GetBudget returns the budget.
func GetBudget(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := c.Snapshot()
		writeJSON(w, http.StatusOK, BudgetResponse{
			Budget: snap.Budget,
			Cost:   catering.Cost(c.Breakdown(), snap.Budget),
		})
	}
}

// UpdateBudget sets rate fields; omitted fields keep their value.
func UpdateBudget(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rates models.BudgetRates
		if !decodeJSON(w, r, &rates) {
			return
		}
		budget, err := c.UpdateBudgetRates(rates)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, BudgetResponse{
			Budget: budget,
			Cost:   catering.Cost(c.Breakdown(), budget),
		})
	}
}
