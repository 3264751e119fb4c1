// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package parser

import "errors"

// Kind classifies a parse failure.
type Kind int

const (
	UnmatchedClose Kind = iota + 1
	UnmatchedOpen
	MissingOperand
	UnexpectedToken
	TooDeep
)

// Sentinels matched by errors.Is against an *Error of the same Kind.
var (
	ErrUnmatchedClose  = errors.New("unmatched loop close")
	ErrUnmatchedOpen   = errors.New("unmatched loop open")
	ErrMissingOperand  = errors.New("missing operand")
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrTooDeep         = errors.New("loop nesting too deep")
)

func (k Kind) String() string {
	switch k {
	case UnmatchedClose:
		return "UnmatchedClose"
	case UnmatchedOpen:
		return "UnmatchedOpen"
	case MissingOperand:
		return "MissingOperand"
	case UnexpectedToken:
		return "UnexpectedToken"
	case TooDeep:
		return "TooDeep"
	}
	return "Unknown"
}

func (k Kind) sentinel() error {
	switch k {
	case UnmatchedClose:
		return ErrUnmatchedClose
	case UnmatchedOpen:
		return ErrUnmatchedOpen
	case MissingOperand:
		return ErrMissingOperand
	case UnexpectedToken:
		return ErrUnexpectedToken
	case TooDeep:
		return ErrTooDeep
	}
	return nil
}

// Error is a structural parse failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // Underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(k Kind, msg string) *Error {
	return &Error{Kind: k, Msg: msg}
}

// KindOf returns the Kind of err, or 0 if err is not a parse error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
