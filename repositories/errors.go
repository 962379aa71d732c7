// Package repositories holds errors shared by the sqlite repositories.
package repositories

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	entityName string
}

func NewNotFoundError(entityName string) *NotFoundError {
	return &NotFoundError{entityName: entityName}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.entityName)
}

func (e *NotFoundError) Is(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsNotFound reports whether err, or anything it wraps, is a NotFoundError.
func IsNotFound(err error) bool {
	return errors.Is(err, &NotFoundError{})
}
