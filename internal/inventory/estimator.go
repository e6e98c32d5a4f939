// Package inventory sizes bar consumables from the confirmed adult headcount
// and classifies tracked stock against that need.
package inventory

import (
	"strings"

	"github.com/anniversary-planner/backend/internal/storage/models"
)

// Per-capita consumption policy. Quantities are expressed as ratios so they can
// be evaluated exactly in integer arithmetic.
const (
	urakLitersPerTenAdults = 1  // 0.1 L per adult
	drinksPerAdult         = 4  // beers, bottles of water, ice kg
	beersPerCase           = 24 // cans per case
	bottlesPerCrate        = 6  // water bottles per crate
	glassesPerTwoAdults    = 3  // 1.5 glasses per adult
)

// Requirement keys used to match tracked items by label.
const (
	KeyUrak  = "urak"
	KeyBeer  = "beer"
	KeyWater = "water"
	KeyIce   = "ice"
	KeyGlass = "glass"
)

// keywords is checked in order; the first keyword found in a label wins.
var keywords = []string{KeyUrak, KeyBeer, KeyWater, KeyIce, KeyGlass}

// Estimate returns the bar requirements for n confirmed adults.
func Estimate(n int) models.BarInventory {
	if n < 0 {
		n = 0
	}
	return models.BarInventory{
		UrakLiters:  ceilDiv(n*urakLitersPerTenAdults, 10),
		BeerCases:   ceilDiv(drinksPerAdult*n, beersPerCase),
		WaterCrates: ceilDiv(drinksPerAdult*n, bottlesPerCrate),
		IceKg:       drinksPerAdult * n,
		Glassware:   ceilDiv(glassesPerTwoAdults*n, 2),
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Required returns the requirement for a keyword, and false for unknown keys.
func Required(bar models.BarInventory, key string) (int, bool) {
	switch key {
	case KeyUrak:
		return bar.UrakLiters, true
	case KeyBeer:
		return bar.BeerCases, true
	case KeyWater:
		return bar.WaterCrates, true
	case KeyIce:
		return bar.IceKg, true
	case KeyGlass:
		return bar.Glassware, true
	}
	return 0, false
}

// MatchKeyword returns the requirement keyword contained in label.
func MatchKeyword(label string) (string, bool) {
	l := strings.ToLower(label)
	for _, k := range keywords {
		if strings.Contains(l, k) {
			return k, true
		}
	}
	return "", false
}

// Classify compares current stock to a requirement.
// Safe at or above the requirement, Low at or above 70% of it, Critical below.
func Classify(current float64, required int) models.StockStatus {
	req := float64(required)
	switch {
	case current >= req:
		return models.StockSafe
	case current*10 >= req*7:
		return models.StockLow
	default:
		return models.StockCritical
	}
}

// ItemStatus is a tracked item annotated with its need and derived status.
type ItemStatus struct {
	models.InventoryItem
	Required *int               `json:"required,omitempty"`
	Status   models.StockStatus `json:"status,omitempty"`
}

// StatusFor derives the status of a tracked item. Items whose label matches no
// requirement keyword have no status.
func StatusFor(item models.InventoryItem, bar models.BarInventory) ItemStatus {
	out := ItemStatus{InventoryItem: item}
	key, ok := MatchKeyword(item.Label)
	if !ok {
		return out
	}
	req, _ := Required(bar, key)
	out.Required = &req
	out.Status = Classify(item.CurrentQuantity, req)
	return out
}

// Statuses annotates every item.
func Statuses(items []models.InventoryItem, bar models.BarInventory) []ItemStatus {
	out := make([]ItemStatus, 0, len(items))
	for _, item := range items {
		out = append(out, StatusFor(item, bar))
	}
	return out
}
