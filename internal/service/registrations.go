package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"clubevents/internal/handoff"
	"clubevents/internal/metrics"
	"clubevents/internal/model"
	"clubevents/internal/repo"
	"clubevents/internal/schema"
)

type RegistrationService struct {
	repo repo.Repository
	log  *zerolog.Logger
	now  func() time.Time
}

func NewRegistrationService(repo repo.Repository, logger *zerolog.Logger) *RegistrationService {
	return &RegistrationService{
		repo: repo,
		log:  logger,
		now:  time.Now,
	}
}

type RegistrationResult struct {
	RegistrationID int64
	WhatsAppURL    string
}

// Register records a registration for userID on eventID. ticketID 0 means
// no ticket. Gate and schema failures are reported before anything is
// written.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID, ticketID int64, answers map[string]any) (*RegistrationResult, error) {
	e, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		s.observe(err)
		return nil, storageErr("get event", err)
	}

	if err := CheckRegistrationGate(e, s.now()); err != nil {
		metrics.ObserveRegistration(metrics.OutcomeClosed)
		s.log.Info().Int64("event_id", eventID).Int64("user_id", userID).Msg(err.Error())
		return nil, err
	}

	normalized, err := schema.Validate(e.FormFields, answers)
	if err != nil {
		metrics.ObserveRegistration(metrics.OutcomeInvalid)
		return nil, err
	}

	reg := &model.Registration{
		UserID:        userID,
		EventID:       eventID,
		FormResponses: normalized,
	}
	if ticketID > 0 {
		reg.TicketID = &ticketID
	}

	id, err := s.repo.CreateRegistrationTx(ctx, reg)
	if err != nil {
		s.observe(err)
		return nil, storageErr("create registration", err)
	}
	metrics.ObserveRegistration(metrics.OutcomeOK)
	s.log.Info().
		Int64("registration_id", id).
		Int64("event_id", eventID).
		Int64("user_id", userID).
		Msg("registration created")

	return &RegistrationResult{
		RegistrationID: id,
		WhatsAppURL:    handoff.WhatsAppURL(e.WhatsAppNumber, e.Title),
	}, nil
}

// Deregister deletes a registration. Missing ids are not an error.
func (s *RegistrationService) Deregister(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRegistration(ctx, id); err != nil {
		return storageErr("delete registration", err)
	}
	s.log.Info().Int64("registration_id", id).Msg("registration deleted")
	return nil
}

func (s *RegistrationService) Get(ctx context.Context, id int64) (*model.Registration, error) {
	reg, err := s.repo.GetRegistrationByID(ctx, id)
	if err != nil {
		return nil, storageErr("get registration", err)
	}
	return reg, nil
}

func (s *RegistrationService) ListByEvent(ctx context.Context, eventID int64) ([]model.Registration, error) {
	if _, err := s.repo.GetEventByID(ctx, eventID); err != nil {
		return nil, storageErr("get event", err)
	}
	regs, err := s.repo.GetRegistrationsByEventID(ctx, eventID)
	if err != nil {
		return nil, storageErr("list registrations", err)
	}
	return regs, nil
}

func (s *RegistrationService) observe(err error) {
	if errors.Is(err, model.ErrNotFound) {
		metrics.ObserveRegistration(metrics.OutcomeNotFound)
		return
	}
	metrics.ObserveRegistration(metrics.OutcomeError)
	s.log.Error().Err(err).Msg("registration failed")
}
