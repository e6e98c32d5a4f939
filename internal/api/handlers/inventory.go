package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/anniversary-planner/backend/internal/inventory"
	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

// InventoryResponse pairs the bar requirements with tracked stock.
type InventoryResponse struct {
	ConfirmedAdults int                    `json:"confirmedAdults"`
	Requirements    models.BarInventory    `json:"requirements"`
	Items           []inventory.ItemStatus `json:"items"`
}

// GetInventory returns requirements and every tracked item with its status.
func GetInventory(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := c.Snapshot()
		items := inventory.Statuses(snap.Budget.CustomInventory, snap.Budget.BarInventory)
		if items == nil {
			items = []inventory.ItemStatus{}
		}
		writeJSON(w, http.StatusOK, InventoryResponse{
			ConfirmedAdults: snap.Budget.Adults,
			Requirements:    snap.Budget.BarInventory,
			Items:           items,
		})
	}
}

// CreateInventoryItem adds a tracked item.
func CreateInventoryItem(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item models.InventoryItem
		if !decodeJSON(w, r, &item) {
			return
		}
		item.ID = ""
		created, err := c.AddInventoryItem(item)
		if err != nil {
			writeStateError(w, err)
			return
		}
		snap, _ := c.Snapshot()
		writeJSON(w, http.StatusCreated, inventory.StatusFor(created, snap.Budget.BarInventory))
	}
}

// UpdateInventoryItem replaces a tracked item.
func UpdateInventoryItem(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item models.InventoryItem
		if !decodeJSON(w, r, &item) {
			return
		}
		item.ID = mux.Vars(r)["id"]
		updated, err := c.UpdateInventoryItem(item)
		if err != nil {
			writeStateError(w, err)
			return
		}
		snap, _ := c.Snapshot()
		writeJSON(w, http.StatusOK, inventory.StatusFor(updated, snap.Budget.BarInventory))
	}
}

// DeleteInventoryItem removes a tracked item.
func DeleteInventoryItem(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := c.DeleteInventoryItem(mux.Vars(r)["id"]); err != nil {
			writeStateError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
