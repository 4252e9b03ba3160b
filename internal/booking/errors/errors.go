package errors

import "errors"

var (
	ErrProfessionalNotFound = errors.New("professional not found")

	ErrInvalidID = errors.New("invalid professional ID format")
)
