// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package ast

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented debug tree of p to w, one instruction per line.
func (p Program) Dump(w io.Writer) error {
	return dump(w, p, 0)
}

func dump(w io.Writer, p Program, depth int) error {
	indent := strings.Repeat("  ", depth)
	for _, in := range p {
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, in.Name()); err != nil {
			return err
		}
		if l, ok := in.(Loop); ok {
			if err := dump(w, l.Body, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// DebugString returns the Dump output as a string.
func (p Program) DebugString() string {
	var sb strings.Builder
	p.Dump(&sb)
	return sb.String()
}

// jsonNode is the JSON shape of a single instruction.
type jsonNode struct {
	Op   string     `json:"op"`
	Dir  string     `json:"dir,omitempty"`
	Axis *Axis      `json:"axis,omitempty"`
	Body []jsonNode `json:"body,omitempty"`
}

func toJSON(p Program) []jsonNode {
	nodes := make([]jsonNode, 0, len(p))
	for _, in := range p {
		switch v := in.(type) {
		case Move:
			axis := v.Axis
			nodes = append(nodes, jsonNode{Op: "move", Dir: v.Dir.String(), Axis: &axis})
		case Duplicate:
			axis := v.Axis
			nodes = append(nodes, jsonNode{Op: "duplicate", Dir: v.Dir.String(), Axis: &axis})
		case Loop:
			nodes = append(nodes, jsonNode{Op: "loop", Body: toJSON(v.Body)})
		default:
			nodes = append(nodes, jsonNode{Op: strings.ToLower(in.Name())})
		}
	}
	return nodes
}

// MarshalJSON renders the program as an array of instruction objects.
func (p Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(toJSON(p))
}

// Stats summarizes the shape of a program.
type Stats struct {
	Instructions int // All nodes, loops included
	Loops        int
	MaxDepth     int // Deepest loop nesting; 0 for a flat program
}

// Stats walks p and counts its nodes.
func (p Program) Stats() Stats {
	var s Stats
	walk(p, 0, &s)
	return s
}

func walk(p Program, depth int, s *Stats) {
	if depth > s.MaxDepth {
		s.MaxDepth = depth
	}
	for _, in := range p {
		s.Instructions++
		if l, ok := in.(Loop); ok {
			s.Loops++
			walk(l.Body, depth+1, s)
		}
	}
}
