package events

import (
	"context"
	"time"

	"studiobook/pkg/kafka"
	"studiobook/pkg/logger"
	"studiobook/pkg/middleware"
	"studiobook/pkg/model"
)

type EventType string

const (
	ReservationCreated     EventType = "reservation.created"
	ReservationConfirmed   EventType = "reservation.confirmed"
	ReservationCancelled   EventType = "reservation.cancelled"
	ReservationCompleted   EventType = "reservation.completed"
	ReservationRescheduled EventType = "reservation.rescheduled"

	SchemaVersion = "1"
	Source        = "studiobook.scheduler"
)

// ForStatus maps a transition target to its event type.
func ForStatus(status model.ReservationStatus) (EventType, bool) {
	switch status {
	case model.StatusConfirmed:
		return ReservationConfirmed, true
	case model.StatusCancelled:
		return ReservationCancelled, true
	case model.StatusCompleted:
		return ReservationCompleted, true
	}
	return "", false
}

type ReservationEvent struct {
	Type           EventType               `json:"type"`
	ReservationID  string                  `json:"reservation_id"`
	Status         model.ReservationStatus `json:"status"`
	PreviousStatus model.ReservationStatus `json:"previous_status,omitempty"`
	StartAt        time.Time               `json:"start_at"`
	EndAt          time.Time               `json:"end_at"`
	ConfirmationID *string                 `json:"confirmation_id,omitempty"`
	Actor          string                  `json:"actor"`
	OccurredAt     time.Time               `json:"occurred_at"`
}

// Publisher emits reservation events after commit. Delivery is best effort:
// failures are logged and never reach the caller.
type Publisher interface {
	Publish(ctx context.Context, eventType EventType, reservation *model.Reservation, previous model.ReservationStatus, actor string)
}

type kafkaPublisher struct {
	publisher kafka.Publisher
	log       *logger.Logger
}

func NewPublisher(publisher kafka.Publisher, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		publisher: publisher,
		log:       log,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, eventType EventType, reservation *model.Reservation, previous model.ReservationStatus, actor string) {
	event := ReservationEvent{
		Type:           eventType,
		ReservationID:  reservation.ID,
		Status:         reservation.Status,
		PreviousStatus: previous,
		StartAt:        reservation.StartAt,
		EndAt:          reservation.EndAt,
		ConfirmationID: reservation.ConfirmationID,
		Actor:          actor,
		OccurredAt:     reservation.UpdatedAt,
	}

	msg, err := kafka.NewMessage().
		WithKey(reservation.ID).
		WithValue(event).
		WithEventType(string(eventType)).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithSchemaVersion(SchemaVersion).
		WithSource(Source).
		Build()
	if err != nil {
		p.log.Error("Failed to build reservation event",
			"event_type", eventType,
			"reservation_id", reservation.ID,
			"error", err,
		)
		return
	}

	if err := p.publisher.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish reservation event",
			"event_type", eventType,
			"reservation_id", reservation.ID,
			"error", err,
		)
	}
}
