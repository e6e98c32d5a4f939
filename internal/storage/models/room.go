package models

// RoomDetail describes a room in one of the stay properties.
// Rooms are keyed by the (RoomNo, Property) pair.
type RoomDetail struct {
	RoomNo   string `json:"roomNo"`
	Property string `json:"property"`
	Type     string `json:"type,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// RoomKey is the composite identity of a room.
type RoomKey struct {
	RoomNo   string
	Property string
}

// Key returns the composite key of the room.
func (r RoomDetail) Key() RoomKey {
	return RoomKey{RoomNo: r.RoomNo, Property: r.Property}
}

// Holds reports whether the guest is assigned to this room.
// Guests referencing rooms that do not exist are simply not held by any room.
func (r RoomDetail) Holds(g Guest) bool {
	return g.RoomNo == r.RoomNo && g.Property == r.Property
}
