package models

// ItineraryItem is one entry of the celebration schedule.
type ItineraryItem struct {
	ID          string   `json:"id"`
	Day         string   `json:"day"`
	Time        string   `json:"time"`
	Title       string   `json:"title"`
	Location    string   `json:"location,omitempty"`
	Description string   `json:"description,omitempty"`
	EventKey    EventKey `json:"eventKey,omitempty"`
}
