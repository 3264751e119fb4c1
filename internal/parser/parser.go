// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package parser builds the decaxis instruction tree from tokens.
//
// Grammar:
//
//	Program     ::= { Instruction | Loop }
//	Loop        ::= "[" Program "]"
//	Instruction ::= "," | "." | "|" | "-" | "+" | "j" | "o" | "k" | "u" | Move | Duplicate
//	Move        ::= ("M" | "m") Digit
//	Duplicate   ::= ("X" | "x") Digit
//
// The first structural violation aborts the parse; no partial program is
// returned.
package parser

import (
	"fmt"

	"nickandperla.net/decaxis/internal/ast"
	"nickandperla.net/decaxis/internal/scanner"
	"nickandperla.net/decaxis/internal/token"
)

// Option configures a parse.
type Option func(*config)

type config struct {
	maxDepth      int
	ignoreUnknown bool
}

// WithMaxDepth bounds loop nesting. Zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		c.maxDepth = n
	}
}

// WithIgnoreUnknown skips NULL tokens instead of rejecting them.
func WithIgnoreUnknown() Option {
	return func(c *config) {
		c.ignoreUnknown = true
	}
}

// context is the per-call parse state. tokens is never mutated.
type context struct {
	tokens []token.Token
	index  int
	depth  int
	cfg    config
}

func (c *context) done() bool {
	return c.index >= len(c.tokens)
}

func (c *context) curr() token.Token {
	return c.tokens[c.index]
}

func (c *context) next() {
	c.index++
}

func (c *context) descend() error {
	if c.cfg.maxDepth > 0 && c.depth >= c.cfg.maxDepth {
		return newError(TooDeep, fmt.Sprintf("loop nesting exceeds %d", c.cfg.maxDepth))
	}
	c.depth++
	return nil
}

func (c *context) ascend() error {
	if c.depth == 0 {
		return newError(UnmatchedClose, "unmatched loop close")
	}
	c.depth--
	return nil
}

// ParseString tokenizes text and parses it.
func ParseString(text string, opts ...Option) (ast.Program, error) {
	return Parse(scanner.Tokenize(text), opts...)
}

// Parse builds a Program from tokens.
func Parse(tokens []token.Token, opts ...Option) (ast.Program, error) {
	ctx := &context{tokens: tokens}
	for _, opt := range opts {
		opt(&ctx.cfg)
	}

	program, err := parseProgram(ctx)
	if err != nil {
		return nil, err
	}
	if !ctx.done() {
		// parseProgram only stops early on a close it has already accounted for.
		return nil, newError(UnmatchedClose, "unmatched loop close")
	}
	if ctx.depth != 0 {
		return nil, newError(UnmatchedOpen, "unmatched loop open")
	}
	if program == nil {
		program = ast.Program{}
	}
	return program, nil
}

// parseProgram collects instructions until input ends or a close bracket
// ends the current loop body. The close is left for the caller to consume.
func parseProgram(ctx *context) (ast.Program, error) {
	var program ast.Program
	for !ctx.done() {
		switch ctx.curr().Kind {
		case token.OPEN:
			if err := ctx.descend(); err != nil {
				return nil, err
			}
			ctx.next()
			body, err := parseProgram(ctx)
			if err != nil {
				return nil, err
			}
			if ctx.done() || ctx.curr().Kind != token.CLOSE {
				return nil, newError(UnmatchedOpen, "expected close to end loop")
			}
			if body == nil {
				body = ast.Program{}
			}
			program = append(program, ast.Loop{Body: body})
			ctx.next()
		case token.CLOSE:
			if err := ctx.ascend(); err != nil {
				return nil, err
			}
			return program, nil
		case token.NULL:
			if !ctx.cfg.ignoreUnknown {
				return nil, unexpected(ctx.curr())
			}
			ctx.next()
		default:
			in, err := parseInstruction(ctx)
			if err != nil {
				return nil, err
			}
			program = append(program, in)
		}
	}
	return program, nil
}

// parseInstruction maps the current token (and for move/duplicate, the
// following digit) to an instruction and advances past it.
func parseInstruction(ctx *context) (ast.Instruction, error) {
	tok := ctx.curr()
	switch {
	case tok.Kind.IsMarker():
		m, ok := ast.MarkerFor(tok.Kind)
		if !ok {
			return nil, unexpected(tok)
		}
		ctx.next()
		return m, nil
	case tok.Kind == token.MOVE:
		axis, err := parseOperand(ctx, "move")
		if err != nil {
			return nil, err
		}
		return ast.Move{Dir: tok.Dir, Axis: axis}, nil
	case tok.Kind == token.DUPLICATE:
		axis, err := parseOperand(ctx, "duplicate")
		if err != nil {
			return nil, err
		}
		return ast.Duplicate{Dir: tok.Dir, Axis: axis}, nil
	}
	return nil, unexpected(tok)
}

// parseOperand consumes a move/duplicate token and its digit.
func parseOperand(ctx *context, op string) (ast.Axis, error) {
	ctx.next()
	if ctx.done() || ctx.curr().Kind != token.DIGIT {
		return 0, newError(MissingOperand, "expected digit after "+op)
	}
	axis, err := ast.NewAxis(ctx.curr().Digit)
	if err != nil {
		return 0, &Error{Kind: UnexpectedToken, Msg: "invalid digit after " + op, Err: err}
	}
	ctx.next()
	return axis, nil
}

func unexpected(tok token.Token) *Error {
	return newError(UnexpectedToken, fmt.Sprintf("unexpected token when parsing instruction: %s", tok))
}
