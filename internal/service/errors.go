package service

import (
	"errors"
	"fmt"

	"clubevents/internal/model"
)

var (
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrPersistence        = errors.New("persistence failure")
	ErrInvalidEvent       = errors.New("invalid event")
	ErrInvalidUser        = errors.New("invalid user")
	ErrInvalidBook        = errors.New("invalid book")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// storageErr passes NotFound and Conflict through and folds every other
// repository failure into ErrPersistence.
func storageErr(op string, err error) error {
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrConflict) {
		return err
	}
	return fmt.Errorf("%s: %w: %v", op, ErrPersistence, err)
}
