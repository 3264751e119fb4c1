// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides the decaxis lexer.
//
// Every input rune yields exactly one token. Runes outside the alphabet
// become token.NULL rather than being dropped, so the parser decides what
// to do with them.
package scanner

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"nickandperla.net/decaxis/internal/token"
)

// Scanner tokenizes decaxis input rune-by-rune.
type Scanner struct {
	reader *bufio.Reader
	count  int
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader) *Scanner {
	return &Scanner{reader: bufio.NewReader(r)}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string) *Scanner {
	return New(strings.NewReader(s))
}

// Count returns the number of tokens produced so far.
func (s *Scanner) Count() int {
	return s.count
}

// Next returns the next token from the input, or io.EOF when exhausted.
func (s *Scanner) Next() (token.Token, error) {
	r, _, err := s.reader.ReadRune()
	if err != nil {
		return token.Token{}, err
	}
	s.count++
	return token.FromRune(r), nil
}

// Tokenize maps each rune of text to its token.
func Tokenize(text string) []token.Token {
	tokens := make([]token.Token, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		tokens = append(tokens, token.FromRune(r))
	}
	return tokens
}

// TokenizeReader drains r through a Scanner.
func TokenizeReader(r io.Reader) ([]token.Token, error) {
	s := New(r)
	var tokens []token.Token
	for {
		t, err := s.Next()
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
}
