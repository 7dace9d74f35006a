package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"clubevents/internal/dto"
	"clubevents/internal/metrics"
	"clubevents/internal/model"
	"clubevents/internal/repo"
	"clubevents/internal/schema"
)

// Publisher sends a message that is delivered after delaySeconds.
type Publisher interface {
	Publish(message []byte, delaySeconds int) error
}

type EventCache interface {
	GetPublicEvents(ctx context.Context) ([]model.EventDetails, bool, error)
	SetPublicEvents(ctx context.Context, events []model.EventDetails) error
	Invalidate(ctx context.Context) error
}

type EventService struct {
	repo  repo.Repository
	log   *zerolog.Logger
	pub   Publisher
	cache EventCache
	now   func() time.Time

	// gen counts cache invalidations; a list read before an invalidation
	// is not written back.
	gen atomic.Int64
}

// NewEventService builds the event service. pub and cache may be nil, which
// disables auto-close scheduling and listing cache respectively.
func NewEventService(repo repo.Repository, logger *zerolog.Logger, pub Publisher, cache EventCache) *EventService {
	return &EventService{
		repo:  repo,
		log:   logger,
		pub:   pub,
		cache: cache,
		now:   time.Now,
	}
}

func (s *EventService) Create(ctx context.Context, e *model.Event, tickets []model.Ticket, contacts []string) (int64, error) {
	if e.Status == "" {
		e.Status = model.StatusUpcoming
	}
	tickets, contacts, err := prepareEvent(e, tickets, contacts)
	if err != nil {
		return 0, err
	}
	if tickets == nil {
		tickets = []model.Ticket{}
	}

	id, err := s.repo.CreateEventTx(ctx, e, tickets, contacts)
	if err != nil {
		return 0, storageErr("create event", err)
	}
	metrics.ObserveEventMutation("create")
	s.log.Info().Int64("event_id", id).Msg("event created")

	s.invalidate(ctx)
	s.scheduleClose(e)
	return id, nil
}

// Update replaces the event's fields and schema. An empty status keeps the
// stored one. nil tickets or contacts keep the stored set; an empty slice
// clears it.
func (s *EventService) Update(ctx context.Context, e *model.Event, tickets []model.Ticket, contacts []string) error {
	if e.Status == "" {
		stored, err := s.repo.GetEventByID(ctx, e.ID)
		if err != nil {
			return storageErr("get event", err)
		}
		e.Status = stored.Status
	}
	tickets, contacts, err := prepareEvent(e, tickets, contacts)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateEventTx(ctx, e, tickets, contacts); err != nil {
		return storageErr("update event", err)
	}
	metrics.ObserveEventMutation("update")
	s.log.Info().Int64("event_id", e.ID).Msg("event updated")

	s.invalidate(ctx)
	s.scheduleClose(e)
	return nil
}

// Delete removes the event and everything referencing it. Deleting a
// missing event is not an error.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteEventTx(ctx, id); err != nil {
		return storageErr("delete event", err)
	}
	metrics.ObserveEventMutation("delete")
	s.log.Info().Int64("event_id", id).Msg("event deleted")

	s.invalidate(ctx)
	return nil
}

func (s *EventService) SetStatus(ctx context.Context, id int64, status model.EventStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEvent, status)
	}
	e, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return storageErr("get event", err)
	}
	if !e.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidEvent, e.Status, status)
	}
	if err := s.repo.UpdateEventStatus(ctx, id, status); err != nil {
		return storageErr("update event status", err)
	}
	metrics.ObserveEventMutation("status")
	s.log.Info().Int64("event_id", id).Str("status", string(status)).Msg("event status changed")

	s.invalidate(ctx)
	e.Status = status
	s.scheduleClose(e)
	return nil
}

func (s *EventService) Get(ctx context.Context, id int64) (*model.EventDetails, error) {
	e, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, storageErr("get event", err)
	}
	return s.details(ctx, *e, false)
}

// ListPublic returns every event with its tickets and contacts, ordered by
// event date. The result is served from the cache when one is configured.
// Writes racing with the read are only guarded within this process; other
// instances may still cache a stale list until the TTL expires.
func (s *EventService) ListPublic(ctx context.Context) ([]model.EventDetails, error) {
	gen := s.gen.Load()
	if s.cache != nil {
		events, ok, err := s.cache.GetPublicEvents(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("events cache read failed")
		}
		if ok {
			return events, nil
		}
	}

	events, err := s.list(ctx, false)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.gen.Load() == gen {
		if err := s.cache.SetPublicEvents(ctx, events); err != nil {
			s.log.Warn().Err(err).Msg("events cache write failed")
		}
	}
	return events, nil
}

// ListAdmin returns every event enriched with tickets, registrations and
// contacts.
func (s *EventService) ListAdmin(ctx context.Context) ([]model.EventDetails, error) {
	return s.list(ctx, true)
}

func (s *EventService) ReplaceTickets(ctx context.Context, eventID int64, tickets []model.Ticket) ([]model.Ticket, error) {
	if tickets == nil {
		tickets = []model.Ticket{}
	}
	if err := checkTickets(tickets); err != nil {
		return nil, err
	}
	out, err := s.repo.ReplaceTicketsTx(ctx, eventID, tickets)
	if err != nil {
		return nil, storageErr("replace tickets", err)
	}
	metrics.ObserveEventMutation("tickets")
	s.log.Info().Int64("event_id", eventID).Int("tickets", len(out)).Msg("tickets replaced")

	s.invalidate(ctx)
	return out, nil
}

func (s *EventService) ListTickets(ctx context.Context, eventID int64) ([]model.Ticket, error) {
	if _, err := s.repo.GetEventByID(ctx, eventID); err != nil {
		return nil, storageErr("get event", err)
	}
	tickets, err := s.repo.GetTicketsByEventID(ctx, eventID)
	if err != nil {
		return nil, storageErr("list tickets", err)
	}
	return tickets, nil
}

func (s *EventService) Stats(ctx context.Context) (model.Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return model.Stats{}, storageErr("stats", err)
	}
	return st, nil
}

// CloseIfDue handles an auto-close message. A message that arrives before
// its close time (the broker delay is capped) is published again for the
// remaining wait.
func (s *EventService) CloseIfDue(ctx context.Context, msg dto.EventCloseMessage) (bool, error) {
	if s.now().Before(msg.CloseAt) {
		if err := s.publishClose(msg); err != nil {
			return false, err
		}
		return false, nil
	}

	closed, err := s.repo.CloseEventIfDue(ctx, msg.EventID)
	if err != nil {
		return false, storageErr("close event", err)
	}
	if closed {
		metrics.ObserveEventMutation("auto_close")
		s.log.Info().Int64("event_id", msg.EventID).Msg("event closed after registration window")
		s.invalidate(ctx)
	}
	return closed, nil
}

func (s *EventService) list(ctx context.Context, withRegistrations bool) ([]model.EventDetails, error) {
	events, err := s.repo.GetAllEvents(ctx)
	if err != nil {
		return nil, storageErr("list events", err)
	}
	out := make([]model.EventDetails, 0, len(events))
	for _, e := range events {
		d, err := s.details(ctx, e, withRegistrations)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *EventService) details(ctx context.Context, e model.Event, withRegistrations bool) (*model.EventDetails, error) {
	tickets, err := s.repo.GetTicketsByEventID(ctx, e.ID)
	if err != nil {
		return nil, storageErr("list tickets", err)
	}
	contacts, err := s.repo.GetContactsByEventID(ctx, e.ID)
	if err != nil {
		return nil, storageErr("list contacts", err)
	}
	d := &model.EventDetails{
		Event:            e,
		Tickets:          tickets,
		WhatsAppContacts: contacts,
	}
	if withRegistrations {
		regs, err := s.repo.GetRegistrationsByEventID(ctx, e.ID)
		if err != nil {
			return nil, storageErr("list registrations", err)
		}
		d.Registrations = regs
	}
	return d, nil
}

func (s *EventService) invalidate(ctx context.Context) {
	s.gen.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("events cache invalidation failed")
	}
}

// scheduleClose publishes an auto-close message for an upcoming event whose
// registration window ends in the future. Publish failures are logged only.
func (s *EventService) scheduleClose(e *model.Event) {
	if s.pub == nil || e.Status != model.StatusUpcoming || e.RegistrationEndDate == nil {
		return
	}
	if !e.RegistrationEndDate.After(s.now()) {
		return
	}
	msg := dto.EventCloseMessage{EventID: e.ID, CloseAt: *e.RegistrationEndDate}
	if err := s.publishClose(msg); err != nil {
		s.log.Error().Err(err).Int64("event_id", e.ID).Msg("failed to schedule auto-close")
	}
}

func (s *EventService) publishClose(msg dto.EventCloseMessage) error {
	if s.pub == nil {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal close message: %w", err)
	}
	delay := closeDelay(msg.CloseAt, s.now())
	if err := s.pub.Publish(payload, delay); err != nil {
		return fmt.Errorf("failed to publish close message: %w", err)
	}
	s.log.Debug().Int64("event_id", msg.EventID).Int("delay_seconds", delay).Msg("auto-close scheduled")
	return nil
}

// prepareEvent normalizes an event payload before it is written. It returns
// the cleaned tickets and contacts, preserving nil.
func prepareEvent(e *model.Event, tickets []model.Ticket, contacts []string) ([]model.Ticket, []string, error) {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return nil, nil, fmt.Errorf("%w: title is required", ErrInvalidEvent)
	}
	if e.EventDate.IsZero() {
		return nil, nil, fmt.Errorf("%w: event date is required", ErrInvalidEvent)
	}
	if !e.Status.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown status %q", ErrInvalidEvent, e.Status)
	}
	switch e.Type {
	case "", model.ModalityOnline, model.ModalityPhysical:
	default:
		return nil, nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if start, end := e.RegistrationStartDate, e.RegistrationEndDate; start != nil && end != nil && !end.After(*start) {
		return nil, nil, fmt.Errorf("%w: registration end must be after start", ErrInvalidEvent)
	}
	e.WhatsAppNumber = strings.TrimSpace(e.WhatsAppNumber)

	fields, err := schema.ValidateDefinitions(e.FormFields)
	if err != nil {
		return nil, nil, err
	}
	e.FormFields = fields

	if tickets != nil {
		if err := checkTickets(tickets); err != nil {
			return nil, nil, err
		}
	}

	if contacts != nil {
		cleaned := make([]string, 0, len(contacts))
		for _, c := range contacts {
			if c = strings.TrimSpace(c); c != "" {
				cleaned = append(cleaned, c)
			}
		}
		contacts = cleaned
	}
	return tickets, contacts, nil
}

// Bounds of the tickets.price NUMERIC(12,2) and quantity INTEGER columns.
const priceScale = 2

var maxTicketPrice = decimal.New(1, 10)

func checkTickets(tickets []model.Ticket) error {
	for i := range tickets {
		t := &tickets[i]
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return fmt.Errorf("%w: ticket #%d has no name", ErrInvalidEvent, i+1)
		}
		if t.Price.IsNegative() {
			return fmt.Errorf("%w: ticket %q has a negative price", ErrInvalidEvent, t.Name)
		}
		if !t.Price.Equal(t.Price.Round(priceScale)) {
			return fmt.Errorf("%w: ticket %q price has more than %d decimal places", ErrInvalidEvent, t.Name, priceScale)
		}
		if t.Price.GreaterThanOrEqual(maxTicketPrice) {
			return fmt.Errorf("%w: ticket %q price must be below %s", ErrInvalidEvent, t.Name, maxTicketPrice)
		}
		if t.Quantity < 0 {
			return fmt.Errorf("%w: ticket %q has a negative quantity", ErrInvalidEvent, t.Name)
		}
		if t.Quantity > math.MaxInt32 {
			return fmt.Errorf("%w: ticket %q quantity is too large", ErrInvalidEvent, t.Name)
		}
	}
	return nil
}
