package domain

import (
	"time"

	"github.com/google/uuid"
)

type ShiftStatus string

const (
	ShiftStatusOpen     ShiftStatus = "OPEN"
	ShiftStatusActive   ShiftStatus = "ACTIVE"
	ShiftStatusCanceled ShiftStatus = "CANCELED"
)

func (s ShiftStatus) Valid() bool {
	switch s {
	case ShiftStatusOpen, ShiftStatusActive, ShiftStatusCanceled:
		return true
	}
	return false
}

type Shift struct {
	ID        uuid.UUID   `json:"id"`
	ManagerID uuid.UUID   `json:"managerId"`
	WorkerID  *uuid.UUID  `json:"workerId"`
	Business  string      `json:"business"`
	RoleName  string      `json:"roleName"`
	Date      Date        `json:"date"`
	StartTime string      `json:"startTime"`
	EndTime   string      `json:"endTime"`
	Pay       *string     `json:"pay"`
	Status    ShiftStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`

	Manager      *UserSummary         `json:"manager,omitempty"`
	Worker       *UserSummary         `json:"worker,omitempty"`
	Applications []ApplicationSummary `json:"applications,omitempty"`
}

// Normalize enforces that an OPEN shift has no worker.
func (s *Shift) Normalize() {
	if s.Status == ShiftStatusOpen {
		s.WorkerID = nil
		s.Worker = nil
	}
}

func (s *Shift) OwnedBy(userID uuid.UUID) bool {
	return s.ManagerID == userID
}

func (s *Shift) AssignedTo(userID uuid.UUID) bool {
	return s.WorkerID != nil && *s.WorkerID == userID
}

// ShiftPatch carries the fields of a partial shift update. Nil pointers are left
// untouched; Optional fields distinguish an explicit null from an absent key.
type ShiftPatch struct {
	Business  *string
	RoleName  *string
	Date      *Date
	StartTime *string
	EndTime   *string
	Pay       Optional[string]
	Status    *ShiftStatus
	WorkerID  Optional[uuid.UUID]
}

// Reopens reports whether the patch puts the shift back on the marketplace.
func (p *ShiftPatch) Reopens() bool {
	return p.Status != nil && *p.Status == ShiftStatusOpen
}

// Apply overwrites every provided field. A patch that sets the status to OPEN
// always clears the worker, whatever WorkerID says.
func (p *ShiftPatch) Apply(s *Shift) {
	if p.Business != nil {
		s.Business = *p.Business
	}
	if p.RoleName != nil {
		s.RoleName = *p.RoleName
	}
	if p.Date != nil {
		s.Date = *p.Date
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		s.EndTime = *p.EndTime
	}
	if p.Pay.Set {
		s.Pay = p.Pay.Value
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.WorkerID.Set {
		s.WorkerID = p.WorkerID.Value
		s.Worker = nil
	}

	s.Normalize()
}
