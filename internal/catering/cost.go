package catering

import "github.com/anniversary-planner/backend/internal/storage/models"

// EventCost is the plate cost of one meal event.
type EventCost struct {
	Event  models.EventKey `json:"event"`
	Adults int             `json:"adults"`
	Kids   int             `json:"kids"`
	Cost   float64         `json:"cost"`
}

// CostSummary prices a breakdown with the budget's plate and bar rates.
type CostSummary struct {
	Events   []EventCost `json:"events"`
	Catering float64     `json:"catering"`
	Bar      float64     `json:"bar"`
	Fixed    float64     `json:"fixed"`
	Total    float64     `json:"total"`
}

// Cost prices every meal event in schedule order and adds the fixed budget lines.
func Cost(b Breakdown, budget models.Budget) CostSummary {
	var out CostSummary
	for _, event := range models.EventKeys {
		c := b.Events[event]
		ec := EventCost{
			Event:  event,
			Adults: c.Adults(),
			Kids:   c.Kids(),
		}
		ec.Cost = float64(ec.Adults)*budget.AdultPlateRate + float64(ec.Kids)*budget.KidPlateRate
		out.Events = append(out.Events, ec)
		out.Catering += ec.Cost
	}
	out.Bar = float64(b.Adults) * budget.BarPerAdultRate
	out.Fixed = budget.VenueCost + budget.DecorCost + budget.MiscCost
	out.Total = out.Catering + out.Bar + out.Fixed
	return out
}
