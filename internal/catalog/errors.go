package catalog

import "errors"

var (
	// ErrServiceNotFound is returned when a service id is unknown
	ErrServiceNotFound = errors.New("service not found")

	// ErrProfessionalNotFound is returned when a professional id is unknown
	ErrProfessionalNotFound = errors.New("professional not found")

	// ErrEmptyCart is returned when an operation requires at least one service
	ErrEmptyCart = errors.New("at least one service is required")
)
