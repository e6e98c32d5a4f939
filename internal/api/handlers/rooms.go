package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

// Occupant is one guest party assigned to a room.
type Occupant struct {
	GuestID string            `json:"guestId"`
	Name    string            `json:"name"`
	Status  models.RSVPStatus `json:"status"`
	Adults  int               `json:"adults"`
	Kids    int               `json:"kids"`
}

// RoomView is a room with its occupancy.
type RoomView struct {
	models.RoomDetail
	Occupants    []Occupant `json:"occupants"`
	Adults       int        `json:"adults"`
	Kids         int        `json:"kids"`
	OverCapacity bool       `json:"overCapacity"`
}

func occupant(g models.Guest) Occupant {
	o := Occupant{GuestID: g.ID, Name: g.Name, Status: g.Status, Adults: 1}
	for _, m := range g.FamilyMembers {
		if m.IsKid() {
			o.Kids++
		} else {
			o.Adults++
		}
	}
	return o
}

// ListRooms returns every room with the parties assigned to it. Declined
// guests are listed but not counted.
func ListRooms(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, _ := c.Snapshot()
		views := make([]RoomView, 0, len(snap.Rooms))
		for _, room := range snap.Rooms {
			v := RoomView{RoomDetail: room, Occupants: []Occupant{}}
			for _, g := range snap.RoomOccupants(room) {
				o := occupant(g)
				v.Occupants = append(v.Occupants, o)
				if g.Status != models.RSVPDeclined {
					v.Adults += o.Adults
					v.Kids += o.Kids
				}
			}
			v.OverCapacity = room.Capacity > 0 && v.Adults+v.Kids > room.Capacity
			views = append(views, v)
		}
		writeJSON(w, http.StatusOK, views)
	}
}

// UpsertRoom creates or replaces a room by (roomNo, property).
func UpsertRoom(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var room models.RoomDetail
		if !decodeJSON(w, r, &room) {
			return
		}
		saved, err := c.UpsertRoom(room)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

// DeleteRoom removes a room.
func DeleteRoom(c *state.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		if err := c.DeleteRoom(models.RoomKey{RoomNo: vars["roomNo"], Property: vars["property"]}); err != nil {
			writeStateError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
