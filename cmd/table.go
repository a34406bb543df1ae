// Copyright 2025 The Places Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// table prints rows inside a box drawn with unicode lines.
type table struct {
	w      io.Writer
	widths []int
}

func newTable(w io.Writer, widths ...int) *table {
	return &table{w: w, widths: widths}
}

// cell truncates or pads s to width runes.
func cell(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		r := []rune(s)

		return string(r[:width-1]) + "…"
	}

	return s + strings.Repeat(" ", width-n)
}

func (t *table) line(left, mid, right string) {
	parts := make([]string, len(t.widths))
	for i, w := range t.widths {
		parts[i] = strings.Repeat("─", w+2)
	}

	fmt.Fprintf(t.w, "%s%s%s\n", left, strings.Join(parts, mid), right)
}

func (t *table) row(values ...string) {
	parts := make([]string, len(t.widths))
	for i, w := range t.widths {
		v := ""
		if i < len(values) {
			v = values[i]
		}

		parts[i] = " " + cell(v, w) + " "
	}

	fmt.Fprintf(t.w, "│%s│\n", strings.Join(parts, "│"))
}

func (t *table) top()       { t.line("╭", "┬", "╮") }
func (t *table) separator() { t.line("├", "┼", "┤") }
func (t *table) bottom()    { t.line("╰", "┴", "╯") }
