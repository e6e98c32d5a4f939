package models

// AppState is the aggregate persisted under the shared storage key.
type AppState struct {
	Guests    []Guest         `json:"guests"`
	Rooms     []RoomDetail    `json:"rooms"`
	Itinerary []ItineraryItem `json:"itinerary"`
	Budget    Budget          `json:"budget"`
	Tasks     []Task          `json:"tasks"`
}

// Clone returns a deep copy of the state.
func (s AppState) Clone() AppState {
	out := AppState{
		Budget: s.Budget.Clone(),
	}
	if s.Guests != nil {
		out.Guests = make([]Guest, len(s.Guests))
		for i, g := range s.Guests {
			out.Guests[i] = g.Clone()
		}
	}
	if s.Rooms != nil {
		out.Rooms = append([]RoomDetail(nil), s.Rooms...)
	}
	if s.Itinerary != nil {
		out.Itinerary = append([]ItineraryItem(nil), s.Itinerary...)
	}
	if s.Tasks != nil {
		out.Tasks = append([]Task(nil), s.Tasks...)
	}
	return out
}

// FindGuest returns the index of the guest with the given id, or -1.
func (s *AppState) FindGuest(id string) int {
	for i := range s.Guests {
		if s.Guests[i].ID == id {
			return i
		}
	}
	return -1
}

// FindRoom returns the index of the room with the given key, or -1.
func (s *AppState) FindRoom(key RoomKey) int {
	for i := range s.Rooms {
		if s.Rooms[i].Key() == key {
			return i
		}
	}
	return -1
}

// RoomOccupants returns the guests assigned to the room.
func (s *AppState) RoomOccupants(room RoomDetail) []Guest {
	var out []Guest
	for _, g := range s.Guests {
		if room.Holds(g) {
			out = append(out, g)
		}
	}
	return out
}
