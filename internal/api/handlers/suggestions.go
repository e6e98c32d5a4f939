package handlers

import (
	"net/http"

	"github.com/anniversary-planner/backend/internal/api/middleware"
	"github.com/anniversary-planner/backend/internal/catering"
	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/suggest"
)

// SuggestLogistics asks for transport and rooming advice.
func SuggestLogistics(c *state.Container, client *suggest.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := c.Snapshot()
		text := client.Logistics(r.Context(), snap.Guests, snap.Rooms)
		writeJSON(w, http.StatusOK, map[string]any{
			"text":        text,
			"placeholder": text == suggest.LogisticsPlaceholder,
		})
	}
}

// SuggestMenu asks for a gala menu that respects the dietary notes.
func SuggestMenu(c *state.Container, client *suggest.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := c.Snapshot()
		menu := client.MenuIdeas(r.Context(), c.Breakdown(), catering.DietaryNotes(snap.Guests))
		if menu == nil {
			middleware.WriteError(w, http.StatusBadGateway, middleware.ErrUnavailable, "Menu suggestions are unavailable right now")
			return
		}
		writeJSON(w, http.StatusOK, menu)
	}
}
