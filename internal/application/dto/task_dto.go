package dto

import "time"

// CreateTaskRequest alta de tarea.
type CreateTaskRequest struct {
	Title           string     `json:"title" validate:"required,min=3,max=100"`
	Description     string     `json:"description" validate:"omitempty,max=500"`
	Type            string     `json:"type" validate:"omitempty,oneof=LLAMADA EMAIL REUNION SEGUIMIENTO DOCUMENTO"`
	Status          string     `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Priority        string     `json:"priority" validate:"omitempty,oneof=ALTA MEDIA BAJA"`
	DueDate         *time.Time `json:"dueDate" validate:"required"`
	ReminderEnabled bool       `json:"reminderEnabled"`
	ReminderTime    *string    `json:"reminderTime" validate:"omitempty,max=10"`
	ClientID        *string    `json:"clientId"`
	AssignedToID    string     `json:"assignedToId"`
}

// UpdateTaskRequest edición parcial de tarea.
type UpdateTaskRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=3,max=100"`
	Description     *string    `json:"description" validate:"omitempty,max=500"`
	Type            *string    `json:"type" validate:"omitempty,oneof=LLAMADA EMAIL REUNION SEGUIMIENTO DOCUMENTO"`
	Status          *string    `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Priority        *string    `json:"priority" validate:"omitempty,oneof=ALTA MEDIA BAJA"`
	DueDate         *time.Time `json:"dueDate"`
	ReminderEnabled *bool      `json:"reminderEnabled"`
	ReminderTime    *string    `json:"reminderTime" validate:"omitempty,max=10"`
	ClientID        *string    `json:"clientId"`
	AssignedToID    *string    `json:"assignedToId"`
}

// PriorityRequest PUT /tasks/:id/priority.
type PriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=ALTA MEDIA BAJA"`
}

// ReminderRequest POST /tasks/:id/reminder.
type ReminderRequest struct {
	ReminderTime string `json:"reminderTime" validate:"required,max=10"`
}

// TaskResponse salida de una tarea.
type TaskResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	DueDate         time.Time  `json:"dueDate"`
	ReminderEnabled bool       `json:"reminderEnabled"`
	ReminderTime    *string    `json:"reminderTime"`
	ClientID        *string    `json:"clientId"`
	CreatedByID     string     `json:"createdById"`
	AssignedToID    string     `json:"assignedToId"`
	EventID         *string    `json:"eventId"`
	CalendarID      *string    `json:"calendarId"`
	CompletedAt     *time.Time `json:"completedAt"`
	Overdue         bool       `json:"overdue"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// TaskListParams filtros de GET /tasks.
type TaskListParams struct {
	ListParams
	Status       string     `query:"status"`
	Priority     string     `query:"priority"`
	Type         string     `query:"type"`
	ClientID     string     `query:"clientId"`
	AssignedToID string     `query:"assignedToId"`
	DateFrom     *time.Time `query:"-"`
	DateTo       *time.Time `query:"-"`
	Overdue      bool       `query:"overdue"`
}

// TaskListResponse página de tareas.
type TaskListResponse struct {
	Tasks      []TaskResponse `json:"tasks"`
	Pagination Pagination     `json:"pagination"`
}

// TaskStatsResponse estadísticas de tareas visibles.
type TaskStatsResponse struct {
	Total      int64       `json:"total"`
	Pending    int64       `json:"pending"`
	InProgress int64       `json:"inProgress"`
	Completed  int64       `json:"completed"`
	Cancelled  int64       `json:"cancelled"`
	Overdue    int64       `json:"overdue"`
	Today      int64       `json:"today"`
	ThisWeek   int64       `json:"thisWeek"`
	ByType     []CountItem `json:"byType"`
	ByPriority []CountItem `json:"byPriority"`
	ByStatus   []CountItem `json:"byStatus"`
	ByUser     []CountItem `json:"byUser,omitempty"`
}

// TaskBulkUpdate campos permitidos en la actualización masiva.
type TaskBulkUpdate struct {
	Status       *string `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Priority     *string `json:"priority" validate:"omitempty,oneof=ALTA MEDIA BAJA"`
	AssignedToID *string `json:"assignedToId"`
}

// TaskBulkUpdateRequest POST /tasks/bulk-update.
type TaskBulkUpdateRequest struct {
	TaskIDs []string       `json:"taskIds" validate:"required,min=1,dive,required"`
	Updates TaskBulkUpdate `json:"updates"`
}

// TaskBulkAssignRequest POST /tasks/bulk-assign.
type TaskBulkAssignRequest struct {
	TaskIDs      []string `json:"taskIds" validate:"required,min=1,dive,required"`
	AssignedToID string   `json:"assignedToId" validate:"required"`
}
