// Package models contains the domain models for the application.
package models

import (
	"time"
)

// RSVPStatus is the attendance answer recorded for a guest.
type RSVPStatus string

// RSVP status constants
const (
	RSVPConfirmed RSVPStatus = "Confirmed"
	RSVPPending   RSVPStatus = "Pending"
	RSVPDeclined  RSVPStatus = "Declined"
)

// Valid reports whether s is one of the known RSVP statuses.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPConfirmed, RSVPPending, RSVPDeclined:
		return true
	}
	return false
}

// Diet is a structured dietary preference.
type Diet string

// Diet constants. Anything that is not DietVeg is treated as non-veg.
const (
	DietVeg    Diet = "Veg"
	DietNonVeg Diet = "Non-Veg"
)

// EventKey identifies one of the fixed meal events of the celebration.
type EventKey string

// Meal event keys, in schedule order.
const (
	EventWelcomeLunch   EventKey = "welcome_lunch"
	EventHighTea        EventKey = "high_tea"
	EventGalaDinner     EventKey = "gala_dinner"
	EventFarewellBrunch EventKey = "farewell_brunch"
)

// GalaEvent is the event whose headcount is used for budget headline figures.
const GalaEvent = EventGalaDinner

// EventKeys lists all meal events in schedule order.
var EventKeys = []EventKey{
	EventWelcomeLunch,
	EventHighTea,
	EventGalaDinner,
	EventFarewellBrunch,
}

// KidAgeLimit is the age from which a family member counts as an adult.
const KidAgeLimit = 11

// MealPlan maps an event to the diet chosen for it.
type MealPlan map[EventKey]Diet

// Guest represents an invited household head and the family travelling with them.
type Guest struct {
	ID                     string         `json:"id"`
	Name                   string         `json:"name"`
	Category               string         `json:"category,omitempty"`
	Side                   string         `json:"side,omitempty"`
	Phone                  string         `json:"phone,omitempty"`
	Property               string         `json:"property,omitempty"`
	RoomNo                 string         `json:"roomNo,omitempty"`
	Status                 RSVPStatus     `json:"status"`
	DietaryNote            string         `json:"dietaryNote,omitempty"`
	DietaryPreference      Diet           `json:"dietaryPreference,omitempty"`
	WelcomeDrinkPreference string         `json:"welcomeDrinkPreference,omitempty"`
	MealPlan               MealPlan       `json:"mealPlan,omitempty"`
	FamilyMembers          []FamilyMember `json:"familyMembers,omitempty"`
	RSVP                   *RSVPDetails   `json:"rsvp,omitempty"`
}

// FamilyMember is a person travelling with a guest. It is owned by that guest.
type FamilyMember struct {
	Name              string   `json:"name"`
	Age               int      `json:"age"`
	Relation          string   `json:"relation,omitempty"`
	DietaryPreference Diet     `json:"dietaryPreference,omitempty"`
	MealPlan          MealPlan `json:"mealPlan,omitempty"`
}

// RSVPDetails is the metadata captured when a guest answers the invitation.
type RSVPDetails struct {
	SubmittedAt time.Time `json:"submittedAt"`
	Pax         int       `json:"pax"`
	Allergies   string    `json:"allergies,omitempty"`
}

// IsKid reports whether the member is counted as a kid for occupancy and catering.
func (m FamilyMember) IsKid() bool {
	return m.Age < KidAgeLimit
}

// Headcount returns the number of people this guest record stands for.
func (g Guest) Headcount() int {
	return 1 + len(g.FamilyMembers)
}

// IsConfirmed reports whether the guest counts towards planning totals.
func (g Guest) IsConfirmed() bool {
	return g.Status == RSVPConfirmed
}

// Clone returns a deep copy of the guest.
func (g Guest) Clone() Guest {
	out := g
	out.MealPlan = g.MealPlan.clone()
	if g.FamilyMembers != nil {
		out.FamilyMembers = make([]FamilyMember, len(g.FamilyMembers))
		for i, m := range g.FamilyMembers {
			m.MealPlan = m.MealPlan.clone()
			out.FamilyMembers[i] = m
		}
	}
	if g.RSVP != nil {
		rsvp := *g.RSVP
		out.RSVP = &rsvp
	}
	return out
}

// Normalize drops empty meal plans and member lists so the guest encodes and
// decodes to the same value.
func (g *Guest) Normalize() {
	if len(g.MealPlan) == 0 {
		g.MealPlan = nil
	}
	if len(g.FamilyMembers) == 0 {
		g.FamilyMembers = nil
	}
	for i := range g.FamilyMembers {
		if len(g.FamilyMembers[i].MealPlan) == 0 {
			g.FamilyMembers[i].MealPlan = nil
		}
	}
}

func (p MealPlan) clone() MealPlan {
	if p == nil {
		return nil
	}
	out := make(MealPlan, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
