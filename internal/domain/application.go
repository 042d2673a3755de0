package domain

import (
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "PENDING"
	ApplicationStatusAccepted ApplicationStatus = "ACCEPTED"
	ApplicationStatusRejected ApplicationStatus = "REJECTED"
)

type Application struct {
	ID        uuid.UUID         `json:"id"`
	ShiftID   uuid.UUID         `json:"shiftId"`
	UserID    uuid.UUID         `json:"userId"`
	Status    ApplicationStatus `json:"status"`
	AppliedAt time.Time         `json:"appliedAt"`

	User *UserSummary `json:"user,omitempty"`
}

type ApplicationSummary struct {
	ID     uuid.UUID         `json:"id"`
	Status ApplicationStatus `json:"status"`
}

// Assignment is the outcome of accepting one application for a shift.
type Assignment struct {
	Accepted *Application   `json:"accepted"`
	Shift    *Shift         `json:"shift"`
	Rejected []*Application `json:"-"`
}
