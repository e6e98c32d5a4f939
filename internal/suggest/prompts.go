package suggest

import (
	"fmt"
	"strings"

	"github.com/anniversary-planner/backend/internal/catering"
	"github.com/anniversary-planner/backend/internal/storage/models"
)

const logisticsSystem = "You help plan a family silver-anniversary weekend. " +
	"Give short, practical advice on airport pickups, shuttles between properties and room allocation. Plain text, no markdown tables."

const menuSystem = "You are a caterer designing a gala dinner menu for a family anniversary. " +
	"Respect every dietary note. Answer only with JSON matching the schema."

func logisticsPrompt(guests []models.Guest, rooms []models.RoomDetail) string {
	var b strings.Builder
	confirmed := 0
	for _, g := range guests {
		if !g.IsConfirmed() {
			continue
		}
		confirmed++
		where := "unassigned"
		if g.RoomNo != "" || g.Property != "" {
			where = strings.TrimSpace(g.Property + " " + g.RoomNo)
		}
		fmt.Fprintf(&b, "- %s (%d pax, %s)\n", g.Name, g.Headcount(), where)
	}
	head := fmt.Sprintf("Confirmed parties: %d\n", confirmed)

	var r strings.Builder
	for _, room := range rooms {
		fmt.Fprintf(&r, "- %s %s: %s, sleeps %d\n", room.Property, room.RoomNo, room.Type, room.Capacity)
	}
	return head + b.String() + "Rooms:\n" + r.String()
}

func menuPrompt(br catering.Breakdown, notes []string) string {
	gala := br.Events[models.GalaEvent]
	var b strings.Builder
	fmt.Fprintf(&b, "Gala dinner headcount: %d adults (%d veg, %d non-veg), %d kids (%d veg, %d non-veg).\n",
		gala.Adults(), gala.AdultVeg, gala.AdultNonVeg, gala.Kids(), gala.KidVeg, gala.KidNonVeg)
	if len(notes) > 0 {
		b.WriteString("Dietary notes:\n")
		for _, n := range notes {
			b.WriteString("- " + n + "\n")
		}
	}
	return b.String()
}
