package models

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrSlotTaken         = errors.New("slot already taken")
	ErrSpecialistUnknown = errors.New("specialist unknown")
	ErrAlreadyRated      = errors.New("booking already rated")
	ErrNotYetDue         = errors.New("booking not completed yet")
	ErrMalformedToken    = errors.New("malformed callback token")
)
