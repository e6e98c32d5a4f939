package models

// TaskOwner is the person a task is delegated to.
type TaskOwner string

// Task owner constants
const (
	OwnerHusband TaskOwner = "Husband"
	OwnerBrother TaskOwner = "Brother"
	OwnerPlanner TaskOwner = "Planner"
	OwnerTBD     TaskOwner = "TBD"
)

// Valid reports whether o is one of the known owners.
func (o TaskOwner) Valid() bool {
	switch o {
	case OwnerHusband, OwnerBrother, OwnerPlanner, OwnerTBD:
		return true
	}
	return false
}

// TaskStatus is the progress of a delegated task.
type TaskStatus string

// Task status constants
const (
	TaskPending    TaskStatus = "Pending"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

// Task is a delegated work item.
type Task struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Owner   TaskOwner  `json:"owner"`
	Status  TaskStatus `json:"status"`
	DueDate string     `json:"dueDate,omitempty"`
	Notes   string     `json:"notes,omitempty"`
}
