package service

import (
	"errors"

	"crono/internal/repository"
)

var (
	ErrStudentNotFound   = errors.New("student not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrTurnNotFound      = errors.New("turn not found")
	ErrTurnAlreadyExists = errors.New("student already holds a turn for this event")
	ErrForbidden         = errors.New("not allowed to remove this turn")
	ErrTurnIntegrity     = errors.New("turn has no queue or spot assigned")
	ErrInvalidEventRef   = errors.New("event id or event code is required")
	ErrInvalidTurnRef    = errors.New("turn id or student and event ids are required")
)

// ErrorKind groups service errors by how callers should react to them.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindInvalid:
		return "invalid"
	default:
		return "internal"
	}
}

func Kind(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrStudentNotFound),
		errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrTurnNotFound):
		return KindNotFound
	case errors.Is(err, ErrTurnAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidEventRef), errors.Is(err, ErrInvalidTurnRef):
		return KindInvalid
	default:
		return KindInternal
	}
}

func notFoundAs(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
