package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/anniversary-planner/backend/internal/storage/models"
)

// GuestPatch is a partial update of a guest. Nil fields are left untouched.
type GuestPatch struct {
	Name                   *string                `json:"name,omitempty"`
	Category               *string                `json:"category,omitempty"`
	Side                   *string                `json:"side,omitempty"`
	Phone                  *string                `json:"phone,omitempty"`
	Property               *string                `json:"property,omitempty"`
	RoomNo                 *string                `json:"roomNo,omitempty"`
	Status                 *models.RSVPStatus     `json:"status,omitempty"`
	DietaryNote            *string                `json:"dietaryNote,omitempty"`
	DietaryPreference      *models.Diet           `json:"dietaryPreference,omitempty"`
	WelcomeDrinkPreference *string                `json:"welcomeDrinkPreference,omitempty"`
	MealPlan               *models.MealPlan       `json:"mealPlan,omitempty"`
	FamilyMembers          *[]models.FamilyMember `json:"familyMembers,omitempty"`
}

func (p GuestPatch) apply(g *models.Guest) error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown RSVP status %q", ErrValidation, *p.Status)
	}
	setString(&g.Name, p.Name)
	setString(&g.Category, p.Category)
	setString(&g.Side, p.Side)
	setString(&g.Phone, p.Phone)
	setString(&g.Property, p.Property)
	setString(&g.RoomNo, p.RoomNo)
	setString(&g.DietaryNote, p.DietaryNote)
	setString(&g.WelcomeDrinkPreference, p.WelcomeDrinkPreference)
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.DietaryPreference != nil {
		g.DietaryPreference = *p.DietaryPreference
	}
	if p.MealPlan != nil {
		g.MealPlan = *p.MealPlan
	}
	if p.FamilyMembers != nil {
		g.FamilyMembers = *p.FamilyMembers
	}
	g.Normalize()
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// RSVPSubmission is what a guest sends back when answering the invitation.
type RSVPSubmission struct {
	Status                 models.RSVPStatus     `json:"status"`
	DietaryPreference      models.Diet           `json:"dietaryPreference,omitempty"`
	WelcomeDrinkPreference string                `json:"welcomeDrinkPreference,omitempty"`
	MealPlan               models.MealPlan       `json:"mealPlan,omitempty"`
	FamilyMembers          []models.FamilyMember `json:"familyMembers,omitempty"`
	Allergies              string                `json:"allergies,omitempty"`
}

// AddGuest appends a guest. An empty id is replaced by the next guest-<n> id.
func (c *Container) AddGuest(g models.Guest) (models.Guest, error) {
	if g.Status == "" {
		g.Status = models.RSVPPending
	}
	if !g.Status.Valid() {
		return models.Guest{}, fmt.Errorf("%w: unknown RSVP status %q", ErrValidation, g.Status)
	}
	if strings.TrimSpace(g.Name) == "" {
		return models.Guest{}, fmt.Errorf("%w: guest name is required", ErrValidation)
	}

	var added models.Guest
	err := c.Update(KindGuests, func(s *models.AppState) error {
		if g.ID == "" {
			g.ID = nextGuestID(s.Guests)
		} else if s.FindGuest(g.ID) >= 0 {
			return fmt.Errorf("%w: guest %s already exists", ErrValidation, g.ID)
		}
		g.Normalize()
		s.Guests = append(s.Guests, g.Clone())
		added = g.Clone()
		return nil
	})
	return added, err
}

// nextGuestID returns guest-<n> with n one above the highest numeric suffix in use.
func nextGuestID(guests []models.Guest) string {
	highest := 0
	for _, g := range guests {
		if !strings.HasPrefix(g.ID, "guest-") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(g.ID, "guest-")); err == nil && n > highest {
			highest = n
		}
	}
	return "guest-" + strconv.Itoa(highest+1)
}

// UpdateGuest applies a partial update to the guest with the given id.
func (c *Container) UpdateGuest(id string, patch GuestPatch) (models.Guest, error) {
	var updated models.Guest
	err := c.Update(KindGuests, func(s *models.AppState) error {
		i := s.FindGuest(id)
		if i < 0 {
			return ErrGuestNotFound
		}
		if err := patch.apply(&s.Guests[i]); err != nil {
			return err
		}
		updated = s.Guests[i].Clone()
		return nil
	})
	return updated, err
}

// SubmitRSVP records a guest's answer together with its metadata.
func (c *Container) SubmitRSVP(id string, sub RSVPSubmission) (models.Guest, error) {
	if !sub.Status.Valid() {
		return models.Guest{}, fmt.Errorf("%w: unknown RSVP status %q", ErrValidation, sub.Status)
	}

	var updated models.Guest
	err := c.Update(KindGuests, func(s *models.AppState) error {
		i := s.FindGuest(id)
		if i < 0 {
			return ErrGuestNotFound
		}
		g := &s.Guests[i]
		g.Status = sub.Status
		if sub.DietaryPreference != "" {
			g.DietaryPreference = sub.DietaryPreference
		}
		if sub.WelcomeDrinkPreference != "" {
			g.WelcomeDrinkPreference = sub.WelcomeDrinkPreference
		}
		if sub.MealPlan != nil {
			g.MealPlan = sub.MealPlan
		}
		if sub.FamilyMembers != nil {
			g.FamilyMembers = sub.FamilyMembers
		}
		g.Normalize()

		pax := 0
		if g.IsConfirmed() {
			pax = g.Headcount()
		}
		g.RSVP = &models.RSVPDetails{
			SubmittedAt: c.now().UTC(),
			Pax:         pax,
			Allergies:   strings.TrimSpace(sub.Allergies),
		}
		updated = g.Clone()
		return nil
	})
	return updated, err
}
