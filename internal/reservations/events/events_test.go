package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"studiobook/pkg/kafka"
	"studiobook/pkg/logger"
	"studiobook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	messages []kafka.Message
	err      error
}

func (r *recordingPublisher) Publish(_ context.Context, msg kafka.Message) error {
	r.messages = append(r.messages, msg)
	return r.err
}

func (r *recordingPublisher) Close() error { return nil }

func TestPublish_BuildsMessage(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewPublisher(rec, logger.Discard())

	code := "PSB-2030-0001"
	reservation := &model.Reservation{
		ID:             "65a000000000000000000001",
		Status:         model.StatusConfirmed,
		StartAt:        time.Date(2030, 1, 15, 10, 0, 0, 0, time.UTC),
		EndAt:          time.Date(2030, 1, 15, 12, 0, 0, 0, time.UTC),
		ConfirmationID: &code,
	}

	p.Publish(context.Background(), ReservationConfirmed, reservation, model.StatusPending, "admin")

	require.Len(t, rec.messages, 1)
	msg := rec.messages[0]
	assert.Equal(t, reservation.ID, msg.Key)
	assert.Equal(t, string(ReservationConfirmed), msg.Headers[kafka.HeaderEventType])
	assert.Equal(t, Source, msg.Headers[kafka.HeaderSource])

	var event ReservationEvent
	require.NoError(t, msg.DecodeValue(&event))
	assert.Equal(t, model.StatusPending, event.PreviousStatus)
	assert.Equal(t, "admin", event.Actor)
	require.NotNil(t, event.ConfirmationID)
	assert.Equal(t, code, *event.ConfirmationID)
}

func TestPublish_SwallowsErrors(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("broker down")}
	p := NewPublisher(rec, logger.Discard())

	assert.NotPanics(t, func() {
		p.Publish(context.Background(), ReservationCreated, &model.Reservation{ID: "x"}, "", "client")
	})
	assert.Len(t, rec.messages, 1)
}

func TestForStatus(t *testing.T) {
	got, ok := ForStatus(model.StatusCancelled)
	assert.True(t, ok)
	assert.Equal(t, ReservationCancelled, got)

	_, ok = ForStatus(model.StatusPending)
	assert.False(t, ok)
}
