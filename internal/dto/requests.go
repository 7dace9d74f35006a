package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type FormFieldRequest struct {
	ID       string   `json:"id"`
	Label    string   `json:"label" validate:"required,max=255"`
	Type     string   `json:"type" validate:"required,field_kind"`
	Required bool     `json:"required"`
	Options  []string `json:"options"`
}

type TicketRequest struct {
	Name     string          `json:"name" validate:"required,max=255"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gte=0"`
}

// EventRequest is the body of both create and update. A nil Tickets or
// WhatsAppContacts slice (field absent) leaves the stored set untouched on
// update; an empty array clears it.
type EventRequest struct {
	Title                 string             `json:"title" validate:"required,max=255"`
	Description           string             `json:"description"`
	EventDate             time.Time          `json:"event_date" validate:"required"`
	Location              string             `json:"location"`
	Type                  string             `json:"type" validate:"modality"`
	Status                string             `json:"status" validate:"event_status"`
	WhatsAppNumber        string             `json:"whatsapp_number" validate:"max=32"`
	FormFields            []FormFieldRequest `json:"form_fields" validate:"dive"`
	Tickets               []TicketRequest    `json:"tickets" validate:"dive"`
	WhatsAppContacts      []string           `json:"whatsapp_contacts"`
	RegistrationStartDate *time.Time         `json:"registration_start_date"`
	RegistrationEndDate   *time.Time         `json:"registration_end_date"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,event_status"`
}

type ReplaceTicketsRequest struct {
	Tickets []TicketRequest `json:"tickets" validate:"dive"`
}

type RegisterEventRequest struct {
	UserID        int64          `json:"userId" validate:"required,gt=0"`
	EventID       int64          `json:"eventId" validate:"required,gt=0"`
	TicketID      int64          `json:"ticketId" validate:"gte=0"`
	FormResponses map[string]any `json:"formResponses"`
}

type RegisterEventResponse struct {
	RegistrationID int64  `json:"registrationId"`
	WhatsAppURL    string `json:"whatsappUrl"`
}

type SignUpRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
}

type UserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Role     string `json:"role" validate:"omitempty,oneof=member admin"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// BookRequest is the body of book create and update. An event_id of 0 or
// null leaves the book unlinked.
type BookRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Author      string `json:"author" validate:"required,max=255"`
	Cover       string `json:"cover"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"max=100"`
	Status      string `json:"status" validate:"omitempty,oneof=available borrowed"`
	IsFeatured  bool   `json:"is_featured"`
	EventID     *int64 `json:"event_id" validate:"omitempty,gte=0"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type IDResponse struct {
	ID int64 `json:"id"`
}

// EventCloseMessage asks the consumer to close an event once its
// registration window has ended.
type EventCloseMessage struct {
	EventID int64     `json:"event_id"`
	CloseAt time.Time `json:"close_at"`
}
