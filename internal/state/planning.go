package state

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/anniversary-planner/backend/internal/storage/models"
)

// UpsertRoom inserts a room or replaces the one with the same (roomNo, property).
func (c *Container) UpsertRoom(room models.RoomDetail) (models.RoomDetail, error) {
	if strings.TrimSpace(room.RoomNo) == "" {
		return models.RoomDetail{}, fmt.Errorf("%w: room number is required", ErrValidation)
	}
	err := c.Update(KindRooms, func(s *models.AppState) error {
		if i := s.FindRoom(room.Key()); i >= 0 {
			s.Rooms[i] = room
			return nil
		}
		s.Rooms = append(s.Rooms, room)
		return nil
	})
	return room, err
}

// DeleteRoom removes a room. Guests pointing at it keep their assignment.
func (c *Container) DeleteRoom(key models.RoomKey) error {
	return c.Update(KindRooms, func(s *models.AppState) error {
		i := s.FindRoom(key)
		if i < 0 {
			return ErrRoomNotFound
		}
		s.Rooms = append(s.Rooms[:i], s.Rooms[i+1:]...)
		return nil
	})
}

// UpdateBudgetRates sets the planner-entered budget figures.
func (c *Container) UpdateBudgetRates(rates models.BudgetRates) (models.Budget, error) {
	var out models.Budget
	err := c.Update(KindBudget, func(s *models.AppState) error {
		rates.Apply(&s.Budget)
		// Rates do not feed the derived fields, so this is the committed budget.
		out = s.Budget.Clone()
		return nil
	})
	return out, err
}

// AddInventoryItem appends a tracked item to the custom inventory.
func (c *Container) AddInventoryItem(item models.InventoryItem) (models.InventoryItem, error) {
	if strings.TrimSpace(item.Label) == "" {
		return models.InventoryItem{}, fmt.Errorf("%w: inventory label is required", ErrValidation)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	err := c.Update(KindInventory, func(s *models.AppState) error {
		s.Budget.CustomInventory = append(s.Budget.CustomInventory, item)
		return nil
	})
	return item, err
}

// UpdateInventoryItem replaces a tracked item by id.
func (c *Container) UpdateInventoryItem(item models.InventoryItem) (models.InventoryItem, error) {
	err := c.Update(KindInventory, func(s *models.AppState) error {
		for i := range s.Budget.CustomInventory {
			if s.Budget.CustomInventory[i].ID == item.ID {
				s.Budget.CustomInventory[i] = item
				return nil
			}
		}
		return ErrInventoryItemNotFound
	})
	return item, err
}

// DeleteInventoryItem removes a tracked item by id.
func (c *Container) DeleteInventoryItem(id string) error {
	return c.Update(KindInventory, func(s *models.AppState) error {
		items := s.Budget.CustomInventory
		for i := range items {
			if items[i].ID == id {
				s.Budget.CustomInventory = append(items[:i], items[i+1:]...)
				return nil
			}
		}
		return ErrInventoryItemNotFound
	})
}

// TaskPatch is a partial update of a task.
type TaskPatch struct {
	Title   *string            `json:"title,omitempty"`
	Owner   *models.TaskOwner  `json:"owner,omitempty"`
	Status  *models.TaskStatus `json:"status,omitempty"`
	DueDate *string            `json:"dueDate,omitempty"`
	Notes   *string            `json:"notes,omitempty"`
}

func validateTask(owner models.TaskOwner, status models.TaskStatus) error {
	if !owner.Valid() {
		return fmt.Errorf("%w: unknown task owner %q", ErrValidation, owner)
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown task status %q", ErrValidation, status)
	}
	return nil
}

// AddTask appends a task. Owner and status default to TBD and Pending.
func (c *Container) AddTask(t models.Task) (models.Task, error) {
	if t.Owner == "" {
		t.Owner = models.OwnerTBD
	}
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if err := validateTask(t.Owner, t.Status); err != nil {
		return models.Task{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	err := c.Update(KindTasks, func(s *models.AppState) error {
		s.Tasks = append(s.Tasks, t)
		return nil
	})
	return t, err
}

// UpdateTask applies a partial update to a task.
func (c *Container) UpdateTask(id string, patch TaskPatch) (models.Task, error) {
	var out models.Task
	err := c.Update(KindTasks, func(s *models.AppState) error {
		for i := range s.Tasks {
			t := &s.Tasks[i]
			if t.ID != id {
				continue
			}
			setString(&t.Title, patch.Title)
			setString(&t.DueDate, patch.DueDate)
			setString(&t.Notes, patch.Notes)
			if patch.Owner != nil {
				t.Owner = *patch.Owner
			}
			if patch.Status != nil {
				t.Status = *patch.Status
			}
			if err := validateTask(t.Owner, t.Status); err != nil {
				return err
			}
			out = *t
			return nil
		}
		return ErrTaskNotFound
	})
	return out, err
}

// SetItinerary replaces the schedule. Items without an id get one.
func (c *Container) SetItinerary(items []models.ItineraryItem) ([]models.ItineraryItem, error) {
	out := make([]models.ItineraryItem, len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		out[i] = item
	}
	err := c.Update(KindItinerary, func(s *models.AppState) error {
		s.Itinerary = append([]models.ItineraryItem(nil), out...)
		return nil
	})
	return out, err
}
