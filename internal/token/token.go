// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines decaxis token kinds and the source rune table.
package token

import "fmt"

// Kind represents a decaxis token kind.
type Kind int

const (
	NULL Kind = iota // Any rune outside the alphabet

	MOVE         // M m
	DUPLICATE    // X x
	DIGIT        // 0-9
	UNDO         // u
	KILL         // k
	PLACE_PORTAL // o
	JUMP_PORTAL  // j
	INC          // +
	DEC          // -
	NOOP         // |
	READ         // .
	WRITE        // ,
	OPEN         // [
	CLOSE        // ]
)

// Source runes for each token.
const (
	RuneMovePos      = 'M'
	RuneMoveNeg      = 'm'
	RuneDuplicatePos = 'X'
	RuneDuplicateNeg = 'x'
	RuneUndo         = 'u'
	RuneKill         = 'k'
	RunePlacePortal  = 'o'
	RuneJumpPortal   = 'j'
	RuneInc          = '+'
	RuneDec          = '-'
	RuneNoOp         = '|'
	RuneRead         = '.'
	RuneWrite        = ','
	RuneOpen         = '['
	RuneClose        = ']'
)

// Direction is the polarity carried by move and duplicate tokens.
type Direction bool

const (
	Pos Direction = true
	Neg Direction = false
)

// DirectionFromBool maps true to Pos and false to Neg.
func DirectionFromBool(b bool) Direction {
	return Direction(b)
}

// Apply returns |n| for Pos and -|n| for Neg.
func (d Direction) Apply(n int) int {
	if n < 0 {
		n = -n
	}
	if d == Neg {
		return -n
	}
	return n
}

func (d Direction) String() string {
	if d == Pos {
		return "Pos"
	}
	return "Neg"
}

// Token is a single lexical unit. Dir is meaningful for MOVE and DUPLICATE,
// Digit for DIGIT.
type Token struct {
	Kind  Kind
	Dir   Direction
	Digit uint8
}

// Convenience constructors.
func Move(d Direction) Token      { return Token{Kind: MOVE, Dir: d} }
func Duplicate(d Direction) Token { return Token{Kind: DUPLICATE, Dir: d} }
func Digit(v uint8) Token         { return Token{Kind: DIGIT, Digit: v} }
func Of(k Kind) Token             { return Token{Kind: k} }

// FromRune classifies one source rune. Runes outside the alphabet yield NULL.
func FromRune(r rune) Token {
	switch r {
	case RuneMovePos:
		return Move(Pos)
	case RuneMoveNeg:
		return Move(Neg)
	case RuneDuplicatePos:
		return Duplicate(Pos)
	case RuneDuplicateNeg:
		return Duplicate(Neg)
	case RuneUndo:
		return Of(UNDO)
	case RuneKill:
		return Of(KILL)
	case RunePlacePortal:
		return Of(PLACE_PORTAL)
	case RuneJumpPortal:
		return Of(JUMP_PORTAL)
	case RuneInc:
		return Of(INC)
	case RuneDec:
		return Of(DEC)
	case RuneNoOp:
		return Of(NOOP)
	case RuneRead:
		return Of(READ)
	case RuneWrite:
		return Of(WRITE)
	case RuneOpen:
		return Of(OPEN)
	case RuneClose:
		return Of(CLOSE)
	}
	if r >= '0' && r <= '9' {
		return Digit(uint8(r - '0'))
	}
	return Of(NULL)
}

// IsMarker returns true for the nine zero-payload instruction tokens.
func (k Kind) IsMarker() bool {
	switch k {
	case UNDO, KILL, PLACE_PORTAL, JUMP_PORTAL, INC, DEC, NOOP, READ, WRITE:
		return true
	}
	return false
}

// String returns the string representation of a token kind.
func (k Kind) String() string {
	switch k {
	case NULL:
		return "NULL"
	case MOVE:
		return "MOVE"
	case DUPLICATE:
		return "DUPLICATE"
	case DIGIT:
		return "DIGIT"
	case UNDO:
		return "UNDO"
	case KILL:
		return "KILL"
	case PLACE_PORTAL:
		return "PLACE_PORTAL"
	case JUMP_PORTAL:
		return "JUMP_PORTAL"
	case INC:
		return "INC"
	case DEC:
		return "DEC"
	case NOOP:
		return "NOOP"
	case READ:
		return "READ"
	case WRITE:
		return "WRITE"
	case OPEN:
		return "OPEN"
	case CLOSE:
		return "CLOSE"
	}
	return "UNKNOWN"
}

func (t Token) String() string {
	switch t.Kind {
	case MOVE, DUPLICATE:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Dir)
	case DIGIT:
		return fmt.Sprintf("DIGIT(%d)", t.Digit)
	}
	return t.Kind.String()
}
