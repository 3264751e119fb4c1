// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package ast defines the decaxis instruction tree.
package ast

import (
	"errors"
	"fmt"
	"strings"

	"nickandperla.net/decaxis/internal/token"
)

// ErrAxisRange is returned when a value outside [0, 10) is converted to an Axis.
var ErrAxisRange = errors.New("number converted to axis is not in [0, 10)")

// NumAxes is the number of addressable axes.
const NumAxes = 10

// Axis is one of the ten addressable axes.
type Axis uint8

// NewAxis converts n to an Axis.
func NewAxis(n uint8) (Axis, error) {
	if n >= NumAxes {
		return 0, fmt.Errorf("axis %d: %w", n, ErrAxisRange)
	}
	return Axis(n), nil
}

// MustAxis is like NewAxis but panics on out-of-range input.
func MustAxis(n uint8) Axis {
	a, err := NewAxis(n)
	if err != nil {
		panic(err)
	}
	return a
}

// Instruction is the interface all tree nodes implement.
type Instruction interface {
	// String returns the canonical source form of the instruction.
	String() string
	// Name returns the debug name of the instruction.
	Name() string
}

// Marker is a zero-payload instruction.
type Marker int

const (
	Undo Marker = iota
	Kill
	PlacePortal
	JumpPortal
	Inc
	Dec
	NoOp
	Read
	Write
)

var markerRunes = [...]rune{
	Undo:        token.RuneUndo,
	Kill:        token.RuneKill,
	PlacePortal: token.RunePlacePortal,
	JumpPortal:  token.RuneJumpPortal,
	Inc:         token.RuneInc,
	Dec:         token.RuneDec,
	NoOp:        token.RuneNoOp,
	Read:        token.RuneRead,
	Write:       token.RuneWrite,
}

var markerNames = [...]string{
	Undo:        "Undo",
	Kill:        "Kill",
	PlacePortal: "PlacePortal",
	JumpPortal:  "JumpPortal",
	Inc:         "Inc",
	Dec:         "Dec",
	NoOp:        "NoOp",
	Read:        "Read",
	Write:       "Write",
}

// MarkerFor returns the marker instruction for a marker token kind.
func MarkerFor(k token.Kind) (Marker, bool) {
	switch k {
	case token.UNDO:
		return Undo, true
	case token.KILL:
		return Kill, true
	case token.PLACE_PORTAL:
		return PlacePortal, true
	case token.JUMP_PORTAL:
		return JumpPortal, true
	case token.INC:
		return Inc, true
	case token.DEC:
		return Dec, true
	case token.NOOP:
		return NoOp, true
	case token.READ:
		return Read, true
	case token.WRITE:
		return Write, true
	}
	return 0, false
}

func (m Marker) String() string {
	if m < 0 || int(m) >= len(markerRunes) {
		return ""
	}
	return string(markerRunes[m])
}

func (m Marker) Name() string {
	if m < 0 || int(m) >= len(markerNames) {
		return fmt.Sprintf("Marker(%d)", int(m))
	}
	return markerNames[m]
}

// Move shifts along an axis (M<digit> / m<digit>).
type Move struct {
	Dir  token.Direction
	Axis Axis
}

func (mv Move) String() string {
	r := token.RuneMoveNeg
	if mv.Dir == token.Pos {
		r = token.RuneMovePos
	}
	return fmt.Sprintf("%c%d", r, mv.Axis)
}

func (mv Move) Name() string { return fmt.Sprintf("Move(%s, %d)", mv.Dir, mv.Axis) }

// Duplicate copies along an axis (X<digit> / x<digit>).
type Duplicate struct {
	Dir  token.Direction
	Axis Axis
}

func (d Duplicate) String() string {
	r := token.RuneDuplicateNeg
	if d.Dir == token.Pos {
		r = token.RuneDuplicatePos
	}
	return fmt.Sprintf("%c%d", r, d.Axis)
}

func (d Duplicate) Name() string { return fmt.Sprintf("Duplicate(%s, %d)", d.Dir, d.Axis) }

// Loop is a bracketed body. The loop exclusively owns Body.
type Loop struct {
	Body Program
}

func (l Loop) String() string {
	return string(token.RuneOpen) + l.Body.String() + string(token.RuneClose)
}

func (l Loop) Name() string { return "Loop" }

// Program is an ordered sequence of top-level instructions.
type Program []Instruction

// String returns the canonical source of the program.
func (p Program) String() string {
	var sb strings.Builder
	for _, in := range p {
		sb.WriteString(in.String())
	}
	return sb.String()
}

// Equal reports whether two programs are structurally identical.
func Equal(a, b Program) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		la, aLoop := a[i].(Loop)
		lb, bLoop := b[i].(Loop)
		if aLoop || bLoop {
			if !(aLoop && bLoop) || !Equal(la.Body, lb.Body) {
				return false
			}
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
