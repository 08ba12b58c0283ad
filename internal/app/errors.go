package app

import (
	"errors"
	"fmt"
)

var ErrUserNotFound = errors.New("user not found")

// NotFoundError reports an id-keyed mutation that found no row.
type NotFoundError struct {
	ID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("User not found with id: %d", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrUserNotFound
}
