package models

import "encoding/json"

// EventCatering holds the headcount buckets for one meal event.
type EventCatering struct {
	AdultVeg    int `json:"adultVeg"`
	AdultNonVeg int `json:"adultNonVeg"`
	KidVeg      int `json:"kidVeg"`
	KidNonVeg   int `json:"kidNonVeg"`
}

// Adults returns the adult pax for the event.
func (c EventCatering) Adults() int { return c.AdultVeg + c.AdultNonVeg }

// Kids returns the kid pax for the event.
func (c EventCatering) Kids() int { return c.KidVeg + c.KidNonVeg }

// Total returns the full pax for the event.
func (c EventCatering) Total() int { return c.Adults() + c.Kids() }

// BarInventory is the consumable quantity set derived from confirmed adults.
type BarInventory struct {
	UrakLiters  int `json:"urakLiters"`
	BeerCases   int `json:"beerCases"`
	WaterCrates int `json:"waterCrates"`
	IceKg       int `json:"iceKg"`
	Glassware   int `json:"glassware"`
}

// Budget is the single planning budget record.
//
// Rate fields are entered by the planner. CateringBreakdown, BarInventory,
// Adults and Kids are derived from the roster and rewritten on every mutation.
type Budget struct {
	VenueCost       float64 `json:"venueCost"`
	DecorCost       float64 `json:"decorCost"`
	AdultPlateRate  float64 `json:"adultPlateRate"`
	KidPlateRate    float64 `json:"kidPlateRate"`
	BarPerAdultRate float64 `json:"barPerAdultRate"`
	MiscCost        float64 `json:"miscCost"`

	CateringBreakdown map[EventKey]EventCatering `json:"cateringBreakdown"`
	BarInventory      BarInventory               `json:"barInventory"`
	Adults            int                        `json:"adults"`
	Kids              int                        `json:"kids"`

	CustomInventory []InventoryItem `json:"customInventory"`
}

// BudgetRates carries the planner-editable part of the budget.
type BudgetRates struct {
	VenueCost       *float64 `json:"venueCost,omitempty"`
	DecorCost       *float64 `json:"decorCost,omitempty"`
	AdultPlateRate  *float64 `json:"adultPlateRate,omitempty"`
	KidPlateRate    *float64 `json:"kidPlateRate,omitempty"`
	BarPerAdultRate *float64 `json:"barPerAdultRate,omitempty"`
	MiscCost        *float64 `json:"miscCost,omitempty"`
}

// Apply copies the set rate fields onto b.
func (r BudgetRates) Apply(b *Budget) {
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&b.VenueCost, r.VenueCost)
	set(&b.DecorCost, r.DecorCost)
	set(&b.AdultPlateRate, r.AdultPlateRate)
	set(&b.KidPlateRate, r.KidPlateRate)
	set(&b.BarPerAdultRate, r.BarPerAdultRate)
	set(&b.MiscCost, r.MiscCost)
}

// Clone returns a deep copy of the budget.
func (b Budget) Clone() Budget {
	out := b
	if b.CateringBreakdown != nil {
		out.CateringBreakdown = make(map[EventKey]EventCatering, len(b.CateringBreakdown))
		for k, v := range b.CateringBreakdown {
			out.CateringBreakdown[k] = v
		}
	}
	if b.CustomInventory != nil {
		out.CustomInventory = append([]InventoryItem(nil), b.CustomInventory...)
	}
	return out
}

// StockStatus classifies a tracked item against its computed need.
type StockStatus string

// Stock status constants
const (
	StockSafe     StockStatus = "Safe"
	StockLow      StockStatus = "Low"
	StockCritical StockStatus = "Critical"
)

// InventoryItem is a purchasable stock entry tracked by the planner.
type InventoryItem struct {
	ID              string  `json:"id"`
	Label           string  `json:"label"`
	Category        string  `json:"category,omitempty"`
	CurrentQuantity float64 `json:"currentQuantity"`
	Unit            string  `json:"unit,omitempty"`
}

// UnmarshalJSON also accepts snapshots written with the older "quantity" field.
func (i *InventoryItem) UnmarshalJSON(data []byte) error {
	type alias InventoryItem
	var raw struct {
		alias
		Quantity *float64 `json:"quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = InventoryItem(raw.alias)
	if raw.Quantity != nil && i.CurrentQuantity == 0 {
		i.CurrentQuantity = *raw.Quantity
	}
	return nil
}
