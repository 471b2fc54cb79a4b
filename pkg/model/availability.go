package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"studiobook/pkg/interval"
)

const (
	ClosedTime    = "00:00"
	MinutesPerDay = 24 * 60
)

var Weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayHours is one weekday's opening window. 00:00-00:00 means closed.
type DayHours struct {
	Start string `json:"start" bson:"start" validate:"required,hhmm"`
	End   string `json:"end" bson:"end" validate:"required,hhmm"`
}

func Closed() DayHours {
	return DayHours{Start: ClosedTime, End: ClosedTime}
}

func (d DayHours) Closed() bool {
	return d.Start == ClosedTime && d.End == ClosedTime
}

// Minutes returns the window as minutes since midnight.
func (d DayHours) Minutes() (int, int, error) {
	start, err := ParseClock(d.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err := ParseClock(d.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// OpeningHours is keyed by weekday name (Sunday..Saturday).
type OpeningHours map[string]DayHours

// For returns the hours for a weekday; a missing entry is a closed day.
func (o OpeningHours) For(day time.Weekday) DayHours {
	if h, ok := o[day.String()]; ok {
		return h
	}
	return Closed()
}

func (o OpeningHours) Clone() OpeningHours {
	c := make(OpeningHours, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

type AvailabilityConfig struct {
	ID                  string       `json:"-" bson:"_id,omitempty"`
	Version             int64        `json:"version" bson:"version"`
	SlotDurationMinutes int          `json:"slot_duration_minutes" bson:"slot_duration_minutes" validate:"required,min=1,max=1440"`
	OpeningHours        OpeningHours `json:"opening_hours" bson:"opening_hours" validate:"required,min=1,max=7,dive,keys,weekday,endkeys"`
	UpdatedAt           time.Time    `json:"updated_at" bson:"updated_at"`
	UpdatedBy           string       `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

func (c *AvailabilityConfig) Clone() *AvailabilityConfig {
	cp := *c
	cp.OpeningHours = c.OpeningHours.Clone()
	return &cp
}

type TimeSlot struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

// BlockedInterval is the [Start, End) window of a confirmed reservation.
type BlockedInterval struct {
	ReservationID string    `json:"reservation_id,omitempty" bson:"_id,omitempty"`
	Start         time.Time `json:"start" bson:"start_at"`
	End           time.Time `json:"end" bson:"end_at"`
}

func (b BlockedInterval) Interval() interval.Interval {
	return interval.New(b.Start, b.End)
}

// ParseClock parses "HH:MM" (24:00 allowed as an end of day) into minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", value, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", value, err)
	}
	if minutes < 0 || minutes > 59 || hours < 0 || hours > 24 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("invalid time %q: out of range", value)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AvailabilityConfigUpdate replaces the whole configuration if ExpectedVersion
// still matches the current one.
type AvailabilityConfigUpdate struct {
	ExpectedVersion     int64        `json:"expected_version" validate:"required,min=1"`
	SlotDurationMinutes int          `json:"slot_duration_minutes" validate:"required,min=1,max=1440"`
	OpeningHours        OpeningHours `json:"opening_hours" validate:"required,min=1,max=7,dive,keys,weekday,endkeys"`
}
