package model

import "errors"

var (
	// ErrInvalidDimension is returned when a width, height or quantity is not a finite positive number.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrInvalidOptions is returned when optimizer options are out of range.
	ErrInvalidOptions = errors.New("invalid optimizer options")
)
