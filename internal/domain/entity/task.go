package entity

import "time"

// TaskType tipo de tarea.
type TaskType string

const (
	TaskLlamada     TaskType = "LLAMADA"
	TaskEmail       TaskType = "EMAIL"
	TaskReunion     TaskType = "REUNION"
	TaskSeguimiento TaskType = "SEGUIMIENTO"
	TaskDocumento   TaskType = "DOCUMENTO"
)

// TaskTypes vocabulario de tipos.
var TaskTypes = []TaskType{TaskLlamada, TaskEmail, TaskReunion, TaskSeguimiento, TaskDocumento}

// Valid indica si el tipo es conocido.
func (t TaskType) Valid() bool {
	for _, v := range TaskTypes {
		if v == t {
			return true
		}
	}
	return false
}

// TaskStatus estado de una tarea.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

// TaskStatuses vocabulario de estados.
var TaskStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskCompleted, TaskCancelled}

// Valid indica si el estado es conocido.
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Open la tarea sigue pendiente de cierre.
func (s TaskStatus) Open() bool { return s == TaskPending || s == TaskInProgress }

// Task tarea de seguimiento comercial.
type Task struct {
	ID              string
	Title           string
	Description     string
	Type            TaskType
	Status          TaskStatus
	Priority        Priority
	DueDate         time.Time
	ReminderEnabled bool
	ReminderTime    *string
	ClientID        *string
	CreatedByID     string
	AssignedToID    string
	EventID         *string
	CalendarID      *string
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Overdue vencida y sin cerrar.
func (t *Task) Overdue(now time.Time) bool {
	return t.Status.Open() && t.DueDate.Before(now)
}

// Field implementa query.Record.
func (t *Task) Field(name string) any {
	switch name {
	case "id":
		return t.ID
	case "title":
		return t.Title
	case "description":
		return t.Description
	case "type":
		return string(t.Type)
	case "status":
		return string(t.Status)
	case "priority":
		return string(t.Priority)
	case "dueDate":
		return t.DueDate
	case "reminderEnabled":
		return t.ReminderEnabled
	case "clientId":
		return t.ClientID
	case "createdById":
		return t.CreatedByID
	case "assignedToId":
		return t.AssignedToID
	case "completedAt":
		return t.CompletedAt
	case "createdAt":
		return t.CreatedAt
	case "updatedAt":
		return t.UpdatedAt
	}
	return nil
}
