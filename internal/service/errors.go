package service

import "errors"

var (
	// ErrInvalidInput wraps request validation failures
	ErrInvalidInput = errors.New("invalid input")

	ErrChildNotFound    = errors.New("child not found")
	ErrItemNotFound     = errors.New("checklist item not found")
	ErrNotCustomItem    = errors.New("only custom checklist items can be deleted")
	ErrUnknownMilestone = errors.New("unknown milestone template")
)
