// Package repotest provides an in-memory repo.Repository for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"clubevents/internal/model"
	"clubevents/internal/repo"
)

// Memory keeps everything in maps guarded by one mutex. Fields are
// exported so tests can inspect and seed state directly.
type Memory struct {
	mu sync.Mutex

	nextID   int64
	Events   map[int64]model.Event
	Tickets  map[int64][]model.Ticket
	Contacts map[int64][]model.ContactChannel
	Regs     map[int64]model.Registration
	Users    map[int64]model.User
	Settings map[string]string
	Books    map[int64]model.Book

	// FailWith, when set, is returned by most writes.
	FailWith error
}

var _ repo.Repository = (*Memory)(nil)

// NewMemory returns an empty repository.
func NewMemory() *Memory {
	return &Memory{
		Events:   map[int64]model.Event{},
		Tickets:  map[int64][]model.Ticket{},
		Contacts: map[int64][]model.ContactChannel{},
		Regs:     map[int64]model.Registration{},
		Users:    map[int64]model.User{},
		Settings: map[string]string{},
		Books:    map[int64]model.Book{},
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// AddUser stores an active member and returns its id.
func (m *Memory) AddUser(name, email string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.Users[id] = model.User{ID: id, Name: name, Email: email, Role: model.RoleMember, Status: model.UserActive}
	return id
}

// AddEvent stores e under a fresh id.
func (m *Memory) AddEvent(e model.Event) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	if e.FormFields == nil {
		e.FormFields = model.FormFields{}
	}
	m.Events[e.ID] = e
	return e.ID
}

func (m *Memory) storeTickets(eventID int64, tickets []model.Ticket) []model.Ticket {
	out := make([]model.Ticket, 0, len(tickets))
	for _, t := range tickets {
		t.ID = m.id()
		t.EventID = eventID
		out = append(out, t)
	}
	m.Tickets[eventID] = out
	return out
}

func (m *Memory) storeContacts(eventID int64, contacts []string) {
	out := make([]model.ContactChannel, 0, len(contacts))
	for _, p := range contacts {
		out = append(out, model.ContactChannel{ID: m.id(), EventID: eventID, PhoneNumber: p})
	}
	m.Contacts[eventID] = out
}

func (m *Memory) CreateEventTx(_ context.Context, e *model.Event, tickets []model.Ticket, contacts []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	e.ID = m.id()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.Events[e.ID] = *e
	m.storeTickets(e.ID, tickets)
	m.storeContacts(e.ID, contacts)
	return e.ID, nil
}

func (m *Memory) UpdateEventTx(_ context.Context, e *model.Event, tickets []model.Ticket, contacts []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if _, ok := m.Events[e.ID]; !ok {
		return repo.ErrEventNotFound
	}
	m.Events[e.ID] = *e
	if tickets != nil {
		m.storeTickets(e.ID, tickets)
	}
	if contacts != nil {
		m.storeContacts(e.ID, contacts)
	}
	return nil
}

func (m *Memory) UpdateEventStatus(_ context.Context, id int64, status model.EventStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Events[id]
	if !ok {
		return repo.ErrEventNotFound
	}
	e.Status = status
	m.Events[id] = e
	return nil
}

func (m *Memory) CloseEventIfDue(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Events[id]
	if !ok || e.Status != model.StatusUpcoming || e.RegistrationEndDate == nil || e.RegistrationEndDate.After(time.Now()) {
		return false, nil
	}
	e.Status = model.StatusClosed
	m.Events[id] = e
	return true, nil
}

func (m *Memory) DeleteEventTx(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	for rid, r := range m.Regs {
		if r.EventID == id {
			delete(m.Regs, rid)
		}
	}
	for bid, b := range m.Books {
		if b.EventID != nil && *b.EventID == id {
			b.EventID = nil
			m.Books[bid] = b
		}
	}
	delete(m.Tickets, id)
	delete(m.Contacts, id)
	delete(m.Events, id)
	return nil
}

func (m *Memory) GetEventByID(_ context.Context, id int64) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Events[id]
	if !ok {
		return nil, repo.ErrEventNotFound
	}
	return &e, nil
}

func (m *Memory) GetAllEvents(_ context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Event, 0, len(m.Events))
	for _, e := range m.Events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].EventDate.Before(out[j].EventDate)
	})
	return out, nil
}

func (m *Memory) GetContactsByEventID(_ context.Context, eventID int64) ([]model.ContactChannel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ContactChannel{}, m.Contacts[eventID]...), nil
}

func (m *Memory) Stats(_ context.Context) (model.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := model.Stats{
		TotalUsers:         len(m.Users),
		TotalEvents:        len(m.Events),
		TotalRegistrations: len(m.Regs),
	}
	for _, e := range m.Events {
		if e.Status == model.StatusUpcoming {
			st.UpcomingEvents++
		}
	}
	return st, nil
}

func (m *Memory) ReplaceTicketsTx(_ context.Context, eventID int64, tickets []model.Ticket) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Events[eventID]; !ok {
		return nil, repo.ErrEventNotFound
	}
	return m.storeTickets(eventID, tickets), nil
}

func (m *Memory) GetTicketsByEventID(_ context.Context, eventID int64) ([]model.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Ticket{}, m.Tickets[eventID]...), nil
}

func (m *Memory) CreateRegistrationTx(_ context.Context, reg *model.Registration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	if _, ok := m.Events[reg.EventID]; !ok {
		return 0, repo.ErrEventNotFound
	}
	if _, ok := m.Users[reg.UserID]; !ok {
		return 0, repo.ErrUserNotFound
	}
	if reg.TicketID != nil {
		found := false
		for _, t := range m.Tickets[reg.EventID] {
			if t.ID == *reg.TicketID {
				found = true
			}
		}
		if !found {
			return 0, repo.ErrTicketNotFound
		}
	}
	reg.ID = m.id()
	reg.CreatedAt = time.Now()
	m.Regs[reg.ID] = *reg
	return reg.ID, nil
}

func (m *Memory) DeleteRegistration(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Regs, id)
	return nil
}

func (m *Memory) GetRegistrationByID(_ context.Context, id int64) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Regs[id]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	u := m.Users[r.UserID]
	r.UserName, r.UserEmail = u.Name, u.Email
	return &r, nil
}

func (m *Memory) GetRegistrationsByEventID(_ context.Context, eventID int64) ([]model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Registration{}
	for _, r := range m.Regs {
		if r.EventID == eventID {
			u := m.Users[r.UserID]
			r.UserName, r.UserEmail = u.Name, u.Email
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateUser(_ context.Context, u *model.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Users {
		if existing.Email == u.Email {
			return 0, repo.ErrDuplicateEmail
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	m.Users[u.ID] = *u
	return u.ID, nil
}

func (m *Memory) UpdateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.Users[u.ID]
	if !ok {
		return repo.ErrUserNotFound
	}
	for id, existing := range m.Users {
		if id != u.ID && existing.Email == u.Email {
			return repo.ErrDuplicateEmail
		}
	}
	if u.Password == "" {
		u.Password = current.Password
	}
	m.Users[u.ID] = *u
	return nil
}

func (m *Memory) DeleteUserTx(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for rid, r := range m.Regs {
		if r.UserID == id {
			delete(m.Regs, rid)
		}
	}
	delete(m.Users, id)
	return nil
}

func (m *Memory) GetUserByCredentials(_ context.Context, email, password string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.Users {
		if u.Email == email && u.Password == password {
			return &u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (m *Memory) GetAllUsers(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.Users))
	for _, u := range m.Users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) GetSettings(_ context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.Settings))
	for k, v := range m.Settings {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) UpsertSettingsTx(_ context.Context, settings map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	for k, v := range settings {
		m.Settings[k] = v
	}
	return nil
}

func (m *Memory) linkedEventExists(b *model.Book) bool {
	if b.EventID == nil {
		return true
	}
	_, ok := m.Events[*b.EventID]
	return ok
}

func (m *Memory) CreateBook(_ context.Context, b *model.Book) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return 0, m.FailWith
	}
	if !m.linkedEventExists(b) {
		return 0, repo.ErrEventNotFound
	}
	b.ID = m.id()
	m.Books[b.ID] = *b
	return b.ID, nil
}

func (m *Memory) UpdateBook(_ context.Context, b *model.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if !m.linkedEventExists(b) {
		return repo.ErrEventNotFound
	}
	if _, ok := m.Books[b.ID]; !ok {
		return repo.ErrBookNotFound
	}
	m.Books[b.ID] = *b
	return nil
}

func (m *Memory) DeleteBook(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	delete(m.Books, id)
	return nil
}

func (m *Memory) GetAllBooks(_ context.Context) ([]model.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Book, 0, len(m.Books))
	for _, b := range m.Books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) MigrateUp(string) error   { return nil }
func (m *Memory) MigrateDown(string) error { return nil }

