package service

import (
	"fmt"

	"studiobook/pkg/model"
)

// SlotStepMinutes is the distance between consecutive slot starts.
const SlotStepMinutes = 60

// GenerateSlots lays slotDurationMinutes-wide slots over one day's opening
// window, one per hour from opening time, dropping any slot that would run
// past closing. A closed day yields no slots.
func GenerateSlots(hours model.DayHours, slotDurationMinutes int) ([]model.TimeSlot, error) {
	if slotDurationMinutes <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %d", slotDurationMinutes)
	}
	if hours.Closed() {
		return []model.TimeSlot{}, nil
	}

	start, end, err := hours.Minutes()
	if err != nil {
		return nil, err
	}

	slots := make([]model.TimeSlot, 0, (end-start)/SlotStepMinutes+1)
	for t := start; t+slotDurationMinutes <= end; t += SlotStepMinutes {
		slots = append(slots, model.TimeSlot{
			StartTime: model.FormatClock(t),
			EndTime:   model.FormatClock(t + slotDurationMinutes),
			Available: true,
		})
	}
	return slots, nil
}
