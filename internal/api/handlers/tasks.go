package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

// ListTasks returns the task board.
func ListTasks(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := c.Snapshot()
		tasks := snap.Tasks
		if tasks == nil {
			tasks = []models.Task{}
		}
		writeJSON(w, http.StatusOK, tasks)
	}
}

// CreateTask adds a task.
func CreateTask(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t models.Task
		if !decodeJSON(w, r, &t) {
			return
		}
		created, err := c.AddTask(t)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// UpdateTask applies a partial update to a task.
func UpdateTask(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch state.TaskPatch
		if !decodeJSON(w, r, &patch) {
			return
		}
		t, err := c.UpdateTask(mux.Vars(r)["id"], patch)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// GetItinerary returns the event schedule.
func GetItinerary(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := c.Snapshot()
		items := snap.Itinerary
		if items == nil {
			items = []models.ItineraryItem{}
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// PutItinerary replaces the event schedule.
func PutItinerary(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var items []models.ItineraryItem
		if !decodeJSON(w, r, &items) {
			return
		}
		saved, err := c.SetItinerary(items)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}
