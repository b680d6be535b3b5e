// Package simerr is the closed error taxonomy of the colony simulation.
package simerr

import (
	"errors"
	"fmt"
)

type Code string

const (
	NotEnoughArea      Code = "NOT_ENOUGH_AREA"
	NotEnoughResources Code = "NOT_ENOUGH_RESOURCES"
	NoEmptyTiles       Code = "NO_EMPTY_TILES"
	NoSuchUnit         Code = "NO_SUCH_UNIT"
	AlreadyHere        Code = "ALREADY_HERE"
	Collision          Code = "COLLISION"
	BadRequest         Code = "BAD_REQUEST"

	// InternalLogicError is a broken invariant, never a user mistake.
	InternalLogicError Code = "INTERNAL_LOGIC_ERROR"
)

// Error carries a taxonomy code plus detail. Two errors match under errors.Is
// when their codes are equal.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Detail
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotEnoughArea      = &Error{Code: NotEnoughArea}
	ErrNotEnoughResources = &Error{Code: NotEnoughResources}
	ErrNoEmptyTiles       = &Error{Code: NoEmptyTiles}
	ErrNoSuchUnit         = &Error{Code: NoSuchUnit}
	ErrAlreadyHere        = &Error{Code: AlreadyHere}
	ErrCollision          = &Error{Code: Collision}
	ErrBadRequest         = &Error{Code: BadRequest}
	ErrInternalLogic      = &Error{Code: InternalLogicError}
)

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// CodeOf returns the taxonomy code of err, or InternalLogicError for errors
// from outside the taxonomy.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalLogicError
}

// Invariant panics with an InternalLogicError. Used where a caller skipped a
// mandatory pre-check.
func Invariant(format string, args ...any) {
	panic(New(InternalLogicError, format, args...))
}
