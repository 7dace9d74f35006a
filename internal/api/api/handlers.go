package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/wb-go/wbf/ginext"

	"clubevents/internal/dto"
	"clubevents/internal/model"
	"clubevents/internal/repo"
	"clubevents/internal/schema"
	"clubevents/internal/service"
	"clubevents/pkg/validator"
)

func (r *Routers) ListEvents(ctx *ginext.Context) {
	events, err := r.Events.ListPublic(ctx.Request.Context())
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, events)
}

func (r *Routers) GetEvent(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid event ID")
	if !ok {
		return
	}
	event, err := r.Events.Get(ctx.Request.Context(), id)
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, event)
}

func (r *Routers) ListTickets(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid event ID")
	if !ok {
		return
	}
	tickets, err := r.Events.ListTickets(ctx.Request.Context(), id)
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, tickets)
}

func (r *Routers) ListAdminEvents(ctx *ginext.Context) {
	events, err := r.Events.ListAdmin(ctx.Request.Context())
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, events)
}

func (r *Routers) CreateEvent(ctx *ginext.Context) {
	var req dto.EventRequest
	if !bindJSON(ctx, &req) {
		return
	}

	event, tickets, contacts := eventFromRequest(req)
	id, err := r.Events.Create(ctx.Request.Context(), event, tickets, contacts)
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessCreatedResponse(ctx, dto.IDResponse{ID: id})
}

func (r *Routers) UpdateEvent(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid event ID")
	if !ok {
		return
	}
	var req dto.EventRequest
	if !bindJSON(ctx, &req) {
		return
	}

	event, tickets, contacts := eventFromRequest(req)
	event.ID = id
	if err := r.Events.Update(ctx.Request.Context(), event, tickets, contacts); err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, dto.IDResponse{ID: id})
}

func (r *Routers) DeleteEvent(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid event ID")
	if !ok {
		return
	}
	if err := r.Events.Delete(ctx.Request.Context(), id); err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, dto.IDResponse{ID: id})
}

func (r *Routers) SetEventStatus(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid event ID")
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := r.Events.SetStatus(ctx.Request.Context(), id, model.EventStatus(req.Status)); err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, dto.IDResponse{ID: id})
}

func (r *Routers) ReplaceTickets(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid event ID")
	if !ok {
		return
	}
	var req dto.ReplaceTicketsRequest
	if !bindJSON(ctx, &req) {
		return
	}
	tickets, err := r.Events.ReplaceTickets(ctx.Request.Context(), id, ticketsFromRequest(req.Tickets))
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, tickets)
}

func (r *Routers) Stats(ctx *ginext.Context) {
	st, err := r.Events.Stats(ctx.Request.Context())
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, st)
}

func (r *Routers) RegisterForEvent(ctx *ginext.Context) {
	var req dto.RegisterEventRequest
	if !bindJSON(ctx, &req) {
		return
	}

	res, err := r.Registrations.Register(ctx.Request.Context(), req.UserID, req.EventID, req.TicketID, req.FormResponses)
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessCreatedResponse(ctx, dto.RegisterEventResponse{
		RegistrationID: res.RegistrationID,
		WhatsAppURL:    res.WhatsAppURL,
	})
}

func (r *Routers) ListRegistrations(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid event ID")
	if !ok {
		return
	}
	regs, err := r.Registrations.ListByEvent(ctx.Request.Context(), id)
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, regs)
}

func (r *Routers) GetRegistration(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid registration ID")
	if !ok {
		return
	}
	reg, err := r.Registrations.Get(ctx.Request.Context(), id)
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, reg)
}

func (r *Routers) DeleteRegistration(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid registration ID")
	if !ok {
		return
	}
	if err := r.Registrations.Deregister(ctx.Request.Context(), id); err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, dto.IDResponse{ID: id})
}

func (r *Routers) SignUp(ctx *ginext.Context) {
	var req dto.SignUpRequest
	if !bindJSON(ctx, &req) {
		return
	}
	u, err := r.Users.SignUp(ctx.Request.Context(), &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessCreatedResponse(ctx, u)
}

func (r *Routers) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}
	u, err := r.Users.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, u)
}

func (r *Routers) ListUsers(ctx *ginext.Context) {
	users, err := r.Users.List(ctx.Request.Context())
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, users)
}

func (r *Routers) CreateUser(ctx *ginext.Context) {
	var req dto.UserRequest
	if !bindJSON(ctx, &req) {
		return
	}
	u, err := r.Users.Create(ctx.Request.Context(), userFromRequest(req))
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessCreatedResponse(ctx, dto.IDResponse{ID: u.ID})
}

func (r *Routers) UpdateUser(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid user ID")
	if !ok {
		return
	}
	var req dto.UserRequest
	if !bindJSON(ctx, &req) {
		return
	}
	u := userFromRequest(req)
	u.ID = id
	if err := r.Users.Update(ctx.Request.Context(), u); err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, dto.IDResponse{ID: id})
}

func (r *Routers) DeleteUser(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid user ID")
	if !ok {
		return
	}
	if err := r.Users.Delete(ctx.Request.Context(), id); err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, dto.IDResponse{ID: id})
}

func (r *Routers) GetSettings(ctx *ginext.Context) {
	settings, err := r.Settings.Get(ctx.Request.Context())
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, settings)
}

// UpdateSettings accepts a flat JSON object; non-string values are stored
// in their printed form.
func (r *Routers) UpdateSettings(ctx *ginext.Context) {
	var req map[string]any
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}
	updates := make(map[string]string, len(req))
	for k, v := range req {
		switch val := v.(type) {
		case nil:
			updates[k] = ""
		case string:
			updates[k] = val
		default:
			updates[k] = fmt.Sprint(val)
		}
	}
	if err := r.Settings.Update(ctx.Request.Context(), updates); err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, nil)
}

func (r *Routers) ListBooks(ctx *ginext.Context) {
	books, err := r.Books.List(ctx.Request.Context())
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, books)
}

func (r *Routers) CreateBook(ctx *ginext.Context) {
	var req dto.BookRequest
	if !bindJSON(ctx, &req) {
		return
	}
	id, err := r.Books.Create(ctx.Request.Context(), bookFromRequest(req))
	if err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessCreatedResponse(ctx, dto.IDResponse{ID: id})
}

func (r *Routers) UpdateBook(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid book ID")
	if !ok {
		return
	}
	var req dto.BookRequest
	if !bindJSON(ctx, &req) {
		return
	}
	b := bookFromRequest(req)
	b.ID = id
	if err := r.Books.Update(ctx.Request.Context(), b); err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, dto.IDResponse{ID: id})
}

func (r *Routers) DeleteBook(ctx *ginext.Context) {
	id, ok := pathID(ctx, "Invalid book ID")
	if !ok {
		return
	}
	if err := r.Books.Delete(ctx.Request.Context(), id); err != nil {
		r.writeError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, dto.IDResponse{ID: id})
}

// writeError maps service and repository errors onto the response envelope.
// Unclassified errors are logged and reported without detail.
func (r *Routers) writeError(ctx *ginext.Context, err error) {
	if ve, ok := schema.AsValidationError(err); ok {
		dto.ValidationFailedError(ctx, ve.Error(), ve.Fields())
		return
	}

	switch {
	case errors.Is(err, repo.ErrEventNotFound):
		dto.EventNotFoundError(ctx)
	case errors.Is(err, repo.ErrTicketNotFound):
		dto.NotFoundError(ctx, dto.TicketNotFound, "Ticket not found")
	case errors.Is(err, repo.ErrUserNotFound):
		dto.NotFoundError(ctx, dto.UserNotFound, "User not found")
	case errors.Is(err, repo.ErrRegistrationNotFound):
		dto.NotFoundError(ctx, dto.RegistrationNotFound, "Registration not found")
	case errors.Is(err, repo.ErrBookNotFound):
		dto.NotFoundError(ctx, dto.BookNotFound, "Book not found")
	case errors.Is(err, service.ErrRegistrationClosed):
		dto.RegistrationClosedError(ctx, err.Error())
	case errors.Is(err, repo.ErrDuplicateEmail):
		dto.ConflictError(ctx, "Email already exists")
	case errors.Is(err, model.ErrConflict):
		dto.ConflictError(ctx, "Resource already exists")
	case errors.Is(err, service.ErrInvalidEvent), errors.Is(err, service.ErrInvalidUser), errors.Is(err, service.ErrInvalidBook):
		dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		dto.ErrorResponse(ctx, http.StatusUnauthorized, dto.InvalidCredentials, "Invalid email or password")
	default:
		r.Log.Error().Err(err).Str("path", ctx.FullPath()).Msg("request failed")
		dto.InternalServerError(ctx)
	}
}

func pathID(ctx *ginext.Context, desc string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		dto.BadResponseError(ctx, dto.FieldIncorrect, desc)
		return 0, false
	}
	return id, true
}

// bindJSON decodes and validates the body. A value of the wrong JSON type is
// reported against its field.
func bindJSON(ctx *ginext.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			dto.FieldBadFormatError(ctx, typeErr.Field)
			return false
		}
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return false
	}
	if verr := validator.Validate(ctx.Request.Context(), req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, verr.Error())
		return false
	}
	return true
}

func eventFromRequest(req dto.EventRequest) (*model.Event, []model.Ticket, []string) {
	e := &model.Event{
		Title:                 req.Title,
		Description:           req.Description,
		EventDate:             req.EventDate,
		Location:              req.Location,
		Type:                  model.Modality(req.Type),
		Status:                model.EventStatus(req.Status),
		WhatsAppNumber:        req.WhatsAppNumber,
		RegistrationStartDate: req.RegistrationStartDate,
		RegistrationEndDate:   req.RegistrationEndDate,
	}
	if req.FormFields != nil {
		e.FormFields = make(model.FormFields, 0, len(req.FormFields))
		for _, f := range req.FormFields {
			e.FormFields = append(e.FormFields, model.FormField{
				ID:       f.ID,
				Label:    f.Label,
				Kind:     model.FieldKind(f.Type),
				Required: f.Required,
				Options:  f.Options,
			})
		}
	}
	return e, ticketsFromRequest(req.Tickets), req.WhatsAppContacts
}

func ticketsFromRequest(reqs []dto.TicketRequest) []model.Ticket {
	if reqs == nil {
		return nil
	}
	tickets := make([]model.Ticket, 0, len(reqs))
	for _, t := range reqs {
		tickets = append(tickets, model.Ticket{Name: t.Name, Price: t.Price, Quantity: t.Quantity})
	}
	return tickets
}

func userFromRequest(req dto.UserRequest) *model.User {
	return &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		Role:     req.Role,
		Status:   req.Status,
	}
}

func bookFromRequest(req dto.BookRequest) *model.Book {
	return &model.Book{
		Title:       req.Title,
		Author:      req.Author,
		Cover:       req.Cover,
		Description: req.Description,
		Category:    req.Category,
		Status:      model.BookStatus(req.Status),
		IsFeatured:  req.IsFeatured,
		EventID:     req.EventID,
	}
}
