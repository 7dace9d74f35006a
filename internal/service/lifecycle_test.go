package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"clubevents/internal/model"
)

func ptr(t time.Time) *time.Time { return &t }

func TestCheckRegistrationGate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)

	tests := []struct {
		name   string
		event  model.Event
		at     time.Time
		closed bool
	}{
		{"upcoming without bounds", model.Event{Status: model.StatusUpcoming}, now, false},
		{"closed status", model.Event{Status: model.StatusClosed}, now, true},
		{"completed status", model.Event{Status: model.StatusCompleted}, now, true},
		{"inside window", model.Event{Status: model.StatusUpcoming, RegistrationStartDate: ptr(start), RegistrationEndDate: ptr(end)}, now, false},
		{"at start is open", model.Event{Status: model.StatusUpcoming, RegistrationStartDate: ptr(start), RegistrationEndDate: ptr(end)}, start, false},
		{"at end is closed", model.Event{Status: model.StatusUpcoming, RegistrationStartDate: ptr(start), RegistrationEndDate: ptr(end)}, end, true},
		{"before start", model.Event{Status: model.StatusUpcoming, RegistrationStartDate: ptr(start)}, start.Add(-time.Second), true},
		{"only end bound", model.Event{Status: model.StatusUpcoming, RegistrationEndDate: ptr(end)}, now, false},
		{"after end, no start", model.Event{Status: model.StatusUpcoming, RegistrationEndDate: ptr(end)}, end.Add(time.Minute), true},
		{"window open but status closed", model.Event{Status: model.StatusClosed, RegistrationStartDate: ptr(start), RegistrationEndDate: ptr(end)}, now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRegistrationGate(&tt.event, tt.at)
			if tt.closed {
				assert.True(t, errors.Is(err, ErrRegistrationClosed), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCloseDelay(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, closeDelay(now.Add(-time.Minute), now))
	assert.Equal(t, 0, closeDelay(now, now))
	assert.Equal(t, 1, closeDelay(now.Add(200*time.Millisecond), now))
	assert.Equal(t, 90, closeDelay(now.Add(90*time.Second), now))
	assert.Equal(t, maxDelaySeconds, closeDelay(now.Add(60*24*time.Hour), now))
}
