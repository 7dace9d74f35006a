package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusClosed    EventStatus = "closed"
	StatusCompleted EventStatus = "completed"
)

// statusTransitions lists every permitted status change. Status is an
// administrator-set field, so every known status may move to every other.
var statusTransitions = map[EventStatus][]EventStatus{
	StatusUpcoming:  {StatusClosed, StatusCompleted},
	StatusClosed:    {StatusUpcoming, StatusCompleted},
	StatusCompleted: {StatusUpcoming, StatusClosed},
}

func (s EventStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Modality string

const (
	ModalityOnline   Modality = "online"
	ModalityPhysical Modality = "physical"
)

type FieldKind string

const (
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindTel      FieldKind = "tel"
	KindSelect   FieldKind = "select"
	KindCheckbox FieldKind = "checkbox"
)

func (k FieldKind) Valid() bool {
	switch k {
	case KindText, KindEmail, KindTel, KindSelect, KindCheckbox:
		return true
	}
	return false
}

type FormField struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Kind     FieldKind `json:"type"`
	Required bool      `json:"required"`
	Options  []string  `json:"options,omitempty"`
}

// FormFields is stored as a JSON text column. NULL and empty text decode to
// an empty list.
type FormFields []FormField

func (f FormFields) Value() (driver.Value, error) {
	if f == nil {
		f = FormFields{}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode form fields: %w", err)
	}
	return string(b), nil
}

func (f *FormFields) Scan(src any) error {
	raw, err := textFrom(src)
	if err != nil {
		return fmt.Errorf("scan form fields: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*f = FormFields{}
		return nil
	}
	var out FormFields
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode form fields: %w", err)
	}
	if out == nil {
		out = FormFields{}
	}
	*f = out
	return nil
}

// Answers maps a field label to its submitted value (string or bool).
type Answers map[string]any

func (a Answers) Value() (driver.Value, error) {
	if a == nil {
		a = Answers{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	return string(b), nil
}

func (a *Answers) Scan(src any) error {
	raw, err := textFrom(src)
	if err != nil {
		return fmt.Errorf("scan answers: %w", err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		*a = Answers{}
		return nil
	}
	var out Answers
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode answers: %w", err)
	}
	if out == nil {
		out = Answers{}
	}
	*a = out
	return nil
}

func textFrom(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", src)
	}
}

type Event struct {
	ID                    int64       `db:"id" json:"id"`
	Title                 string      `db:"title" json:"title"`
	Description           string      `db:"description" json:"description"`
	EventDate             time.Time   `db:"event_date" json:"event_date"`
	Location              string      `db:"location" json:"location"`
	Type                  Modality    `db:"type" json:"type"`
	Status                EventStatus `db:"status" json:"status"`
	WhatsAppNumber        string      `db:"whatsapp_number" json:"whatsapp_number"`
	FormFields            FormFields  `db:"form_fields" json:"form_fields"`
	RegistrationStartDate *time.Time  `db:"registration_start_date" json:"registration_start_date,omitempty"`
	RegistrationEndDate   *time.Time  `db:"registration_end_date" json:"registration_end_date,omitempty"`
	CreatedAt             time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time   `db:"updated_at" json:"updated_at"`
}

type Ticket struct {
	ID       int64           `db:"id" json:"id"`
	EventID  int64           `db:"event_id" json:"event_id"`
	Name     string          `db:"name" json:"name"`
	Price    decimal.Decimal `db:"price" json:"price"`
	Quantity int             `db:"quantity" json:"quantity"`
}

type ContactChannel struct {
	ID          int64  `db:"id" json:"id"`
	EventID     int64  `db:"event_id" json:"event_id"`
	PhoneNumber string `db:"phone_number" json:"phone_number"`
}

type Registration struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"user_id"`
	EventID       int64     `db:"event_id" json:"event_id"`
	TicketID      *int64    `db:"ticket_id" json:"ticket_id,omitempty"`
	FormResponses Answers   `db:"form_responses" json:"form_responses"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UserName      string    `db:"user_name" json:"user_name,omitempty"`
	UserEmail     string    `db:"user_email" json:"user_email,omitempty"`
}

// EventDetails is an event together with everything that references it.
type EventDetails struct {
	Event
	Tickets          []Ticket         `json:"tickets"`
	Registrations    []Registration   `json:"registrations,omitempty"`
	WhatsAppContacts []ContactChannel `json:"whatsappContacts"`
}

type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Role      string    `db:"role" json:"role"`
	Status    string    `db:"status" json:"status"`
	Password  string    `db:"password" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

const (
	RoleMember = "member"
	RoleAdmin  = "admin"

	UserActive   = "active"
	UserInactive = "inactive"
)

type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookBorrowed  BookStatus = "borrowed"
)

func (s BookStatus) Valid() bool {
	return s == BookAvailable || s == BookBorrowed
}

// Book is a catalogue entry, optionally tied to the event that discusses it.
type Book struct {
	ID          int64      `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Author      string     `db:"author" json:"author"`
	Cover       string     `db:"cover" json:"cover"`
	Description string     `db:"description" json:"description"`
	Category    string     `db:"category" json:"category"`
	Status      BookStatus `db:"status" json:"status"`
	IsFeatured  bool       `db:"is_featured" json:"is_featured"`
	EventID     *int64     `db:"event_id" json:"event_id"`
}

type Stats struct {
	TotalUsers         int `json:"totalUsers"`
	TotalEvents        int `json:"totalEvents"`
	UpcomingEvents     int `json:"upcomingEvents"`
	TotalRegistrations int `json:"totalRegistrations"`
}
