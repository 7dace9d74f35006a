package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubevents/internal/model"
	"clubevents/internal/repo"
	"clubevents/internal/repo/repotest"
	"clubevents/internal/schema"
)

func setupRegistrationService(now time.Time) (*RegistrationService, *repotest.Memory) {
	r := newFakeRepo()
	s := NewRegistrationService(r, testLogger())
	s.now = func() time.Time { return now }
	return s, r
}

func TestRegister_DietaryScenario(t *testing.T) {
	s, r := setupRegistrationService(fixedNow)
	ctx := context.Background()
	uid := r.AddUser("Ada", "ada@example.com")
	eid := r.AddEvent(model.Event{
		Title:          "Book Club",
		Status:         model.StatusUpcoming,
		WhatsAppNumber: "15551234567",
		FormFields:     model.FormFields{{ID: "f1", Label: "Dietary", Kind: model.KindText, Required: true}},
	})

	_, err := s.Register(ctx, uid, eid, 0, map[string]any{})
	ve, ok := schema.AsValidationError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "Dietary", ve.Field())
	assert.Empty(t, r.Regs, "nothing written on validation failure")

	res, err := s.Register(ctx, uid, eid, 0, map[string]any{"Dietary": "Vegan"})
	require.NoError(t, err)
	assert.Equal(t,
		"https://wa.me/15551234567?text=Hello%21%20I%20just%20registered%20for%20the%20event%3A%20Book%20Club",
		res.WhatsAppURL)

	stored := r.Regs[res.RegistrationID]
	assert.Equal(t, model.Answers{"Dietary": "Vegan"}, stored.FormResponses)
	assert.Nil(t, stored.TicketID)
}

func TestRegister_NoFieldsNoBounds(t *testing.T) {
	s, r := setupRegistrationService(fixedNow)
	uid := r.AddUser("Ada", "ada@example.com")
	eid := r.AddEvent(model.Event{Title: "Open Mic", Status: model.StatusUpcoming})

	res, err := s.Register(context.Background(), uid, eid, 0, nil)

	require.NoError(t, err)
	assert.NotZero(t, res.RegistrationID)
	assert.Equal(t, model.Answers{}, r.Regs[res.RegistrationID].FormResponses)
}

func TestRegister_Window(t *testing.T) {
	start := fixedNow.Add(-time.Hour)
	end := fixedNow.Add(time.Hour)

	tests := []struct {
		name   string
		now    time.Time
		closed bool
	}{
		{"inside", fixedNow, false},
		{"before open", start.Add(-time.Minute), true},
		{"at close", end, true},
		{"after close", end.Add(time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, r := setupRegistrationService(tt.now)
			uid := r.AddUser("Ada", "ada@example.com")
			eid := r.AddEvent(model.Event{
				Title:                 "Windowed",
				Status:                model.StatusUpcoming,
				RegistrationStartDate: &start,
				RegistrationEndDate:   &end,
			})

			_, err := s.Register(context.Background(), uid, eid, 0, nil)
			if tt.closed {
				assert.ErrorIs(t, err, ErrRegistrationClosed)
				assert.Empty(t, r.Regs)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegister_GateBeforeSchema(t *testing.T) {
	s, r := setupRegistrationService(fixedNow)
	uid := r.AddUser("Ada", "ada@example.com")
	eid := r.AddEvent(model.Event{
		Title:      "Closed",
		Status:     model.StatusClosed,
		FormFields: model.FormFields{{ID: "f1", Label: "Dietary", Kind: model.KindText, Required: true}},
	})

	_, err := s.Register(context.Background(), uid, eid, 0, map[string]any{})

	assert.ErrorIs(t, err, ErrRegistrationClosed)
	_, isValidation := schema.AsValidationError(err)
	assert.False(t, isValidation)
}

func TestRegister_NotFound(t *testing.T) {
	s, r := setupRegistrationService(fixedNow)
	ctx := context.Background()
	uid := r.AddUser("Ada", "ada@example.com")
	eid := r.AddEvent(model.Event{Title: "Book Club", Status: model.StatusUpcoming})
	other := r.AddEvent(model.Event{Title: "Other", Status: model.StatusUpcoming})
	tickets, err := r.ReplaceTicketsTx(ctx, other, []model.Ticket{{Name: "Other ticket"}})
	require.NoError(t, err)

	_, err = s.Register(ctx, uid, 999, 0, nil)
	assert.ErrorIs(t, err, model.ErrNotFound, "missing event")

	_, err = s.Register(ctx, 999, eid, 0, nil)
	assert.ErrorIs(t, err, model.ErrNotFound, "missing user")

	_, err = s.Register(ctx, uid, eid, tickets[0].ID, nil)
	assert.ErrorIs(t, err, model.ErrNotFound, "ticket of another event")

	assert.Empty(t, r.Regs)
}

func TestRegister_WithTicketAndDuplicatesAllowed(t *testing.T) {
	s, r := setupRegistrationService(fixedNow)
	ctx := context.Background()
	uid := r.AddUser("Ada", "ada@example.com")
	eid := r.AddEvent(model.Event{Title: "Book Club", Status: model.StatusUpcoming})
	tickets, err := r.ReplaceTicketsTx(ctx, eid, []model.Ticket{{Name: "Regular", Quantity: 0}})
	require.NoError(t, err)

	first, err := s.Register(ctx, uid, eid, tickets[0].ID, nil)
	require.NoError(t, err)
	second, err := s.Register(ctx, uid, eid, tickets[0].ID, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first.RegistrationID, second.RegistrationID)
	require.NotNil(t, r.Regs[first.RegistrationID].TicketID)
	assert.Equal(t, tickets[0].ID, *r.Regs[first.RegistrationID].TicketID)
	assert.Equal(t, 0, r.Tickets[eid][0].Quantity, "inventory is advisory")
}

func TestRegister_StorageFailure(t *testing.T) {
	s, r := setupRegistrationService(fixedNow)
	uid := r.AddUser("Ada", "ada@example.com")
	eid := r.AddEvent(model.Event{Title: "Book Club", Status: model.StatusUpcoming})
	r.FailWith = errDBDown

	_, err := s.Register(context.Background(), uid, eid, 0, nil)

	assert.ErrorIs(t, err, ErrPersistence)
}

func TestDeregisterAndList(t *testing.T) {
	s, r := setupRegistrationService(fixedNow)
	ctx := context.Background()
	uid := r.AddUser("Ada", "ada@example.com")
	eid := r.AddEvent(model.Event{Title: "Book Club", Status: model.StatusUpcoming})

	res, err := s.Register(ctx, uid, eid, 0, nil)
	require.NoError(t, err)

	regs, err := s.ListByEvent(ctx, eid)
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "Ada", regs[0].UserName)

	reg, err := s.Get(ctx, res.RegistrationID)
	require.NoError(t, err)
	assert.Equal(t, eid, reg.EventID)
	assert.Equal(t, "ada@example.com", reg.UserEmail)

	require.NoError(t, s.Deregister(ctx, res.RegistrationID))
	require.NoError(t, s.Deregister(ctx, res.RegistrationID), "idempotent")

	regs, err = s.ListByEvent(ctx, eid)
	require.NoError(t, err)
	assert.Empty(t, regs)

	_, err = s.Get(ctx, res.RegistrationID)
	assert.ErrorIs(t, err, repo.ErrRegistrationNotFound)

	_, err = s.ListByEvent(ctx, 999)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
