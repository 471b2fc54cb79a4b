package model

import (
	"time"

	"studiobook/pkg/interval"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further schedule or status mutation.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// BlocksTime reports whether a reservation in this status excludes its window
// from availability. Pending requests are tentative and never block.
func (s ReservationStatus) BlocksTime() bool {
	return s == StatusConfirmed
}

type Source string

const (
	SourceClient Source = "client"
	SourceAdmin  Source = "admin"
)

type Reservation struct {
	ID               string            `json:"id,omitempty" bson:"_id,omitempty"`
	Status           ReservationStatus `json:"status" bson:"status"`
	StartAt          time.Time         `json:"start_at" bson:"start_at"`
	EndAt            time.Time         `json:"end_at" bson:"end_at"`
	Timezone         string            `json:"timezone" bson:"timezone"`
	DurationHours    int               `json:"duration_hours" bson:"duration_hours"`
	ConfirmationID   *string           `json:"confirmation_id" bson:"confirmation_id,omitempty"`
	ConfirmationYear int               `json:"-" bson:"confirmation_year,omitempty"`
	ConfirmationSeq  int               `json:"-" bson:"confirmation_seq,omitempty"`
	ConfirmedAt      *time.Time        `json:"confirmed_at" bson:"confirmed_at,omitempty"`
	Source           Source            `json:"source" bson:"source"`
	ClientName       string            `json:"client_name" bson:"client_name"`
	ClientEmail      string            `json:"client_email" bson:"client_email"`
	ClientPhone      string            `json:"client_phone,omitempty" bson:"client_phone,omitempty"`
	Notes            string            `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedBy        string            `json:"created_by" bson:"created_by"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" bson:"updated_at"`
}

func (r *Reservation) Interval() interval.Interval {
	return interval.New(r.StartAt, r.EndAt)
}

func (r *Reservation) Clone() *Reservation {
	c := *r
	if r.ConfirmationID != nil {
		id := *r.ConfirmationID
		c.ConfirmationID = &id
	}
	if r.ConfirmedAt != nil {
		at := *r.ConfirmedAt
		c.ConfirmedAt = &at
	}
	return &c
}

// ScheduleChange is the write set of a reschedule.
type ScheduleChange struct {
	StartAt       time.Time
	EndAt         time.Time
	DurationHours int
	UpdatedAt     time.Time
}

// StatusChange is the write set of a lifecycle transition.
type StatusChange struct {
	Status           ReservationStatus
	ConfirmationID   *string
	ConfirmationYear int
	ConfirmationSeq  int
	ConfirmedAt      *time.Time
	UpdatedAt        time.Time
}

type StatusHistoryEntry struct {
	ID            string            `json:"id,omitempty" bson:"_id,omitempty"`
	ReservationID string            `json:"reservation_id" bson:"reservation_id"`
	OldStatus     ReservationStatus `json:"old_status,omitempty" bson:"old_status"`
	NewStatus     ReservationStatus `json:"new_status" bson:"new_status"`
	ChangedBy     string            `json:"changed_by" bson:"changed_by"`
	ChangedAt     time.Time         `json:"changed_at" bson:"changed_at"`
	Notes         string            `json:"notes,omitempty" bson:"notes,omitempty"`
}

// ReservationLock is an advisory lock serialising admission decisions per studio.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type ReservationRequest struct {
	StartAt     string            `json:"start_at" validate:"required"`
	EndAt       string            `json:"end_at" validate:"required"`
	Timezone    string            `json:"timezone,omitempty" validate:"omitempty,timezone"`
	ClientName  string            `json:"client_name" validate:"required,min=2,max=100"`
	ClientEmail string            `json:"client_email" validate:"required,email,max=254"`
	ClientPhone string            `json:"client_phone,omitempty" validate:"omitempty,e164"`
	Notes       string            `json:"notes,omitempty" validate:"omitempty,max=1000"`
	Status      ReservationStatus `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed completed cancelled"`
}

type ScheduleRequest struct {
	StartAt string `json:"start_at" validate:"required"`
	EndAt   string `json:"end_at" validate:"required"`
}

type TransitionRequest struct {
	Status ReservationStatus `json:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	Notes  string            `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type SlotCheckRequest struct {
	StartAt   string `json:"start_at" validate:"required"`
	EndAt     string `json:"end_at" validate:"required"`
	ExcludeID string `json:"exclude_id,omitempty" validate:"omitempty,mongodb"`
}
