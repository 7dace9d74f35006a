package validator

import (
	"context"
	"errors"

	"github.com/go-playground/validator"

	"clubevents/internal/model"
)

var global *validator.Validate

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Field is required"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrFieldExceedsMaxVal = "Field exceeds maximum value"
	ErrFieldBelowMinVal   = "Field is below minimum value"
	ErrInvalidEmail       = "Invalid email"
	ErrUnknownValidation  = "Unknown validation error"
)

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("event_status", validateEventStatus)
	_ = v.RegisterValidation("modality", validateModality)
	_ = v.RegisterValidation("field_kind", validateFieldKind)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

// Empty values pass the custom tags; pair them with "required" when needed.
func validateEventStatus(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || model.EventStatus(s).Valid()
}

func validateModality(fl validator.FieldLevel) bool {
	switch model.Modality(fl.Field().String()) {
	case "", model.ModalityOnline, model.ModalityPhysical:
		return true
	}
	return false
}

func validateFieldKind(fl validator.FieldLevel) bool {
	return model.FieldKind(fl.Field().String()).Valid()
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	vErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(vErrors) == 0 {
		return nil
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "event_status", "modality", "field_kind", "oneof":
		msg = ErrInvalidFormat
	case "required":
		msg = ErrFieldRequired
	case "email":
		msg = ErrInvalidEmail
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "lt", "lte":
		msg = ErrFieldExceedsMaxVal
	case "gt", "gte":
		msg = ErrFieldBelowMinVal
	default:
		msg = ErrUnknownValidation
	}
	return errors.New(msg + ": " + ve.Namespace())
}
