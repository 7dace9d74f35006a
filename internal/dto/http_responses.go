package dto

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound        = "EVENT_NOT_FOUND"
	TicketNotFound       = "TICKET_NOT_FOUND"
	UserNotFound         = "USER_NOT_FOUND"
	RegistrationClosed   = "REGISTRATION_CLOSED"
	ValidationFailed     = "VALIDATION_FAILED"
	Conflict             = "CONFLICT"
	InvalidCredentials   = "INVALID_CREDENTIALS"
	AdminTokenRequired   = "ADMIN_TOKEN_REQUIRED"
	RegistrationNotFound = "REGISTRATION_NOT_FOUND"
	BookNotFound         = "BOOK_NOT_FOUND"
)

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code   string   `json:"code"`
	Desc   string   `json:"desc"`
	Field  string   `json:"field,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

func ErrorResponse(c *ginext.Context, status int, code, desc string) {
	c.JSON(status, Response{
		Status: "error",
		Error: &Error{
			Code: code,
			Desc: desc,
		},
	})
}

func BadResponseError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, http.StatusBadRequest, code, desc)
}

func InternalServerError(c *ginext.Context) {
	ErrorResponse(c, http.StatusInternalServerError, ServiceUnavailable, InternalError)
}

func FieldBadFormatError(c *ginext.Context, fieldName string) {
	BadResponseError(c, FieldBadFormat, "Field '"+fieldName+"' has bad format")
}

func NotFoundError(c *ginext.Context, code, desc string) {
	ErrorResponse(c, http.StatusNotFound, code, desc)
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func RegistrationClosedError(c *ginext.Context, desc string) {
	ErrorResponse(c, http.StatusForbidden, RegistrationClosed, desc)
}

func ConflictError(c *ginext.Context, desc string) {
	ErrorResponse(c, http.StatusConflict, Conflict, desc)
}

// ValidationFailedError names the first failing field and lists all of them
// so the client can re-render the form.
func ValidationFailedError(c *ginext.Context, desc string, fields []string) {
	e := &Error{
		Code:   ValidationFailed,
		Desc:   desc,
		Fields: fields,
	}
	if len(fields) > 0 {
		e.Field = fields[0]
	}
	c.JSON(http.StatusUnprocessableEntity, Response{Status: "error", Error: e})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Status: "ok",
		Data:   data,
	})
}
