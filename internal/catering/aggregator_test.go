package catering

import (
	"testing"

	"github.com/anniversary-planner/backend/internal/storage/models"
)

func confirmed(id string, pref models.Diet, members ...models.FamilyMember) models.Guest {
	return models.Guest{
		ID:                id,
		Name:              id,
		Status:            models.RSVPConfirmed,
		DietaryPreference: pref,
		FamilyMembers:     members,
	}
}

func TestAggregateEmptyRoster(t *testing.T) {
	b := Aggregate(nil)
	if len(b.Events) != len(models.EventKeys) {
		t.Fatalf("events: want=%d got=%d", len(models.EventKeys), len(b.Events))
	}
	for _, event := range models.EventKeys {
		if got := b.Events[event]; got != (models.EventCatering{}) {
			t.Fatalf("%s: want zero buckets got=%+v", event, got)
		}
	}
	if b.Adults != 0 || b.Kids != 0 {
		t.Fatalf("headline: want 0/0 got=%d/%d", b.Adults, b.Kids)
	}
}

func TestAggregateOnlyConfirmedGuestsCount(t *testing.T) {
	guests := []models.Guest{
		confirmed("guest-1", models.DietVeg),
		{ID: "guest-2", Status: models.RSVPPending},
		{ID: "guest-3", Status: models.RSVPDeclined, FamilyMembers: []models.FamilyMember{{Age: 40}}},
	}
	b := Aggregate(guests)
	for _, event := range models.EventKeys {
		if total := b.Events[event].Total(); total != 1 {
			t.Fatalf("%s: want total 1 got=%d", event, total)
		}
	}

	guests[0].Status = models.RSVPDeclined
	b = Aggregate(guests)
	for _, event := range models.EventKeys {
		if total := b.Events[event].Total(); total != 0 {
			t.Fatalf("%s after decline: want total 0 got=%d", event, total)
		}
	}
}

func TestAggregateBucketsSumToHeadcount(t *testing.T) {
	guests := []models.Guest{
		confirmed("guest-1", models.DietNonVeg,
			models.FamilyMember{Name: "a", Age: 35},
			models.FamilyMember{Name: "b", Age: 7, DietaryPreference: models.DietVeg},
		),
		confirmed("guest-2", "",
			models.FamilyMember{Name: "c", Age: 10},
		),
		{ID: "guest-3", Status: models.RSVPPending, FamilyMembers: []models.FamilyMember{{Age: 3}}},
		confirmed("guest-4", "Jain"),
	}
	want := 0
	for _, g := range guests {
		if g.IsConfirmed() {
			want += g.Headcount()
		}
	}

	b := Aggregate(guests)
	for _, event := range models.EventKeys {
		c := b.Events[event]
		if got := c.AdultVeg + c.AdultNonVeg + c.KidVeg + c.KidNonVeg; got != want {
			t.Fatalf("%s: want=%d got=%d", event, want, got)
		}
	}

	gala := b.Events[models.EventGalaDinner]
	// guest-1 non-veg, member a inherits non-veg, guest-2 veg by default, guest-4 "Jain" is not Veg.
	if gala.AdultNonVeg != 3 || gala.AdultVeg != 1 {
		t.Fatalf("gala adults: want veg=1 nonveg=3 got=%+v", gala)
	}
	// b keeps its own Veg preference, c inherits guest-2's default Veg.
	if gala.KidVeg != 2 || gala.KidNonVeg != 0 {
		t.Fatalf("gala kids: want veg=2 nonveg=0 got=%+v", gala)
	}
	if b.Adults != 4 || b.Kids != 2 {
		t.Fatalf("headline: want 4/2 got=%d/%d", b.Adults, b.Kids)
	}
}

func TestAggregateKidBoundary(t *testing.T) {
	tests := []struct {
		age  int
		kid  bool
		name string
	}{
		{age: 10, kid: true, name: "ten is kid"},
		{age: 11, kid: false, name: "eleven is adult"},
		{age: 0, kid: true, name: "infant is kid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Aggregate([]models.Guest{confirmed("guest-1", models.DietVeg, models.FamilyMember{Age: tt.age})})
			gala := b.Events[models.EventGalaDinner]
			gotKid := gala.Kids() == 1
			if gotKid != tt.kid {
				t.Fatalf("age %d: want kid=%v got=%+v", tt.age, tt.kid, gala)
			}
		})
	}
}

func TestAggregateMealPlanPrecedence(t *testing.T) {
	g := confirmed("guest-1", models.DietVeg,
		models.FamilyMember{Age: 30, MealPlan: models.MealPlan{models.EventHighTea: models.DietNonVeg}},
	)
	g.MealPlan = models.MealPlan{models.EventGalaDinner: models.DietNonVeg}

	b := Aggregate([]models.Guest{g})

	gala := b.Events[models.EventGalaDinner]
	if gala.AdultNonVeg != 1 || gala.AdultVeg != 1 {
		t.Fatalf("gala: guest plan should win for guest only, got=%+v", gala)
	}
	tea := b.Events[models.EventHighTea]
	if tea.AdultNonVeg != 1 || tea.AdultVeg != 1 {
		t.Fatalf("high tea: member plan should win for member only, got=%+v", tea)
	}
	lunch := b.Events[models.EventWelcomeLunch]
	if lunch.AdultVeg != 2 {
		t.Fatalf("welcome lunch: want both veg got=%+v", lunch)
	}
}

func TestResolveDiet(t *testing.T) {
	plan := models.MealPlan{models.EventGalaDinner: models.DietNonVeg, models.EventHighTea: ""}
	tests := []struct {
		name     string
		event    models.EventKey
		pref     models.Diet
		fallback models.Diet
		want     models.Diet
	}{
		{"explicit event value", models.EventGalaDinner, models.DietVeg, "", models.DietNonVeg},
		{"empty event value falls through", models.EventHighTea, models.DietNonVeg, "", models.DietNonVeg},
		{"personal default", models.EventWelcomeLunch, models.DietNonVeg, models.DietVeg, models.DietNonVeg},
		{"inherited fallback", models.EventWelcomeLunch, "", models.DietNonVeg, models.DietNonVeg},
		{"global default", models.EventWelcomeLunch, "", "", models.DietVeg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveDiet(plan, tt.event, tt.pref, tt.fallback); got != tt.want {
				t.Fatalf("want=%q got=%q", tt.want, got)
			}
		})
	}
}

func TestCost(t *testing.T) {
	b := Aggregate([]models.Guest{
		confirmed("guest-1", models.DietVeg, models.FamilyMember{Age: 5}),
	})
	budget := models.Budget{
		AdultPlateRate:  100,
		KidPlateRate:    50,
		BarPerAdultRate: 20,
		VenueCost:       1000,
	}
	got := Cost(b, budget)
	if len(got.Events) != 4 {
		t.Fatalf("events: want=4 got=%d", len(got.Events))
	}
	if got.Catering != 600 {
		t.Fatalf("catering: want=600 got=%v", got.Catering)
	}
	if got.Bar != 20 {
		t.Fatalf("bar: want=20 got=%v", got.Bar)
	}
	if got.Total != 1620 {
		t.Fatalf("total: want=1620 got=%v", got.Total)
	}
}

func TestDietaryNotes(t *testing.T) {
	guests := []models.Guest{
		{ID: "guest-1", Name: "Asha", Status: models.RSVPConfirmed, DietaryNote: "no onion",
			RSVP: &models.RSVPDetails{Allergies: "peanuts"}},
		{ID: "guest-2", Name: "Ravi", Status: models.RSVPDeclined, DietaryNote: "gluten free"},
	}
	notes := DietaryNotes(guests)
	if len(notes) != 2 {
		t.Fatalf("notes: want=2 got=%v", notes)
	}
	if notes[0] != "Asha: no onion" || notes[1] != "Asha (allergies): peanuts" {
		t.Fatalf("notes: got=%v", notes)
	}
}
