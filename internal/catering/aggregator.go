// Package catering derives meal headcounts and plate costs from the guest roster.
package catering

import (
	"strings"

	"github.com/anniversary-planner/backend/internal/storage/models"
)

// DefaultDiet is used when neither an event choice nor a personal preference is set.
const DefaultDiet = models.DietVeg

// Breakdown is the per-event headcount derived from a roster.
type Breakdown struct {
	Events map[models.EventKey]models.EventCatering `json:"events"`
	Adults int                                      `json:"adults"`
	Kids   int                                      `json:"kids"`
}

// ConfirmedAdults returns the adult pax of the gala event.
func (b Breakdown) ConfirmedAdults() int {
	return b.Adults
}

// ResolveDiet returns the diet for one event using the precedence
// explicit per-event value, then personal default, then fallback.
func ResolveDiet(plan models.MealPlan, event models.EventKey, preference, fallback models.Diet) models.Diet {
	if d, ok := plan[event]; ok && d != "" {
		return d
	}
	if preference != "" {
		return preference
	}
	if fallback != "" {
		return fallback
	}
	return DefaultDiet
}

// IsVeg reports whether the resolved diet counts as vegetarian.
func IsVeg(d models.Diet) bool {
	return d == models.DietVeg
}

// Aggregate counts confirmed guests and their family members per event.
// The guest itself is always an adult; members are kids below models.KidAgeLimit.
func Aggregate(guests []models.Guest) Breakdown {
	out := Breakdown{Events: make(map[models.EventKey]models.EventCatering, len(models.EventKeys))}
	for _, event := range models.EventKeys {
		out.Events[event] = models.EventCatering{}
	}

	for _, g := range guests {
		if !g.IsConfirmed() {
			continue
		}
		for _, event := range models.EventKeys {
			bucket := out.Events[event]

			own := ResolveDiet(g.MealPlan, event, g.DietaryPreference, DefaultDiet)
			count(&bucket, false, own)

			// Members inherit the parent's preference, not its per-event choice.
			inherited := ResolveDiet(nil, event, g.DietaryPreference, DefaultDiet)
			for _, m := range g.FamilyMembers {
				d := ResolveDiet(m.MealPlan, event, m.DietaryPreference, inherited)
				count(&bucket, m.IsKid(), d)
			}

			out.Events[event] = bucket
		}
	}

	gala := out.Events[models.GalaEvent]
	out.Adults = gala.Adults()
	out.Kids = gala.Kids()
	return out
}

func count(bucket *models.EventCatering, kid bool, d models.Diet) {
	switch {
	case kid && IsVeg(d):
		bucket.KidVeg++
	case kid:
		bucket.KidNonVeg++
	case IsVeg(d):
		bucket.AdultVeg++
	default:
		bucket.AdultNonVeg++
	}
}

// DietaryNotes collects the free-text dietary remarks of confirmed guests,
// including RSVP allergies, for use in menu prompts.
func DietaryNotes(guests []models.Guest) []string {
	var notes []string
	for _, g := range guests {
		if !g.IsConfirmed() {
			continue
		}
		if n := strings.TrimSpace(g.DietaryNote); n != "" {
			notes = append(notes, g.Name+": "+n)
		}
		if g.RSVP != nil {
			if a := strings.TrimSpace(g.RSVP.Allergies); a != "" {
				notes = append(notes, g.Name+" (allergies): "+a)
			}
		}
	}
	return notes
}
