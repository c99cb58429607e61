package service

import "errors"

var (
	// ErrConversationNotFound is returned when a conversation id does not resolve.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrInvalidInput is returned for requests missing required fields.
	ErrInvalidInput = errors.New("invalid input")
)
