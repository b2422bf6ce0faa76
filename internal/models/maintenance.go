package models

import "time"

type ChecklistStatus string

const (
	ChecklistPending    ChecklistStatus = "pending"
	ChecklistInProgress ChecklistStatus = "in-progress"
	ChecklistCompleted  ChecklistStatus = "completed"
)

// Checklist is the read-only snapshot of a recurring checklist the rules inspect.
type Checklist struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Department  string          `json:"department"`
	Status      ChecklistStatus `json:"status"`
	NextDueDate *time.Time      `json:"next_due_date,omitempty"`
	AssignedTo  string          `json:"assigned_to,omitempty"`
}

type RequestPriority string

const (
	PriorityLow    RequestPriority = "low"
	PriorityMedium RequestPriority = "medium"
	PriorityHigh   RequestPriority = "high"
)

type RequestStatus string

const (
	RequestOpen       RequestStatus = "open"
	RequestInProgress RequestStatus = "in-progress"
	RequestCompleted  RequestStatus = "completed"
)

// MaintenanceRequest is the read-only snapshot of a maintenance request.
type MaintenanceRequest struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Department  string          `json:"department"`
	Priority    RequestPriority `json:"priority"`
	Status      RequestStatus   `json:"status"`
	RequestedBy string          `json:"requested_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
