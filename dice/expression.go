// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// exprPattern matches dice expressions of the form "NdM", "NdM+K" or "NdM-K".
var exprPattern = regexp.MustCompile(`^(\d+)d(\d+)(?:([+\-])(\d+))?$`)

// Expression is a parsed dice expression: Count dice of Size faces plus a
// flat Modifier.
type Expression struct {
	Count    int
	Size     int
	Modifier int
}

// Parse parses a dice expression such as "2d6+3". Spaces are ignored.
// A plain integer like "7" parses to a zero-dice expression whose Modifier
// is the integer itself.
func Parse(s string) (Expression, error) {
	trimmed := strings.ReplaceAll(s, " ", "")
	if trimmed == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	if m := exprPattern.FindStringSubmatch(trimmed); m != nil {
		count, _ := strconv.Atoi(m[1])
		size, _ := strconv.Atoi(m[2])
		if size <= 0 {
			return Expression{}, fmt.Errorf("dice: invalid die size in %q", s)
		}
		modifier := 0
		if m[3] != "" {
			modifier, _ = strconv.Atoi(m[4])
			if m[3] == "-" {
				modifier = -modifier
			}
		}
		return Expression{Count: count, Size: size, Modifier: modifier}, nil
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		return Expression{Modifier: n}, nil
	}

	return Expression{}, fmt.Errorf("dice: cannot parse expression %q", s)
}

// Roll rolls the expression. On a crit the dice count is doubled before
// rolling; the flat modifier is never doubled. The result is floored at 0.
func (e Expression) Roll(r Roller, crit bool) int {
	count := e.Count
	if crit {
		count *= 2
	}

	total := Sum(r, count, e.Size) + e.Modifier
	if total < 0 {
		return 0
	}
	return total
}

// Average returns the expected value of the expression: N*(M+1)/2 + K.
func (e Expression) Average() float64 {
	if e.Count == 0 {
		return float64(e.Modifier)
	}
	return float64(e.Count)*float64(e.Size+1)/2 + float64(e.Modifier)
}

// ParseAndRoll parses and rolls a dice expression. Empty strings roll to 0.
// Unparseable strings fall back to 1d6; callers that care about reporting the
// fallback should Parse up front.
func ParseAndRoll(r Roller, s string, crit bool) int {
	if s == "" {
		return 0
	}

	expr, err := Parse(s)
	if err != nil {
		return Sum(r, 1, 6)
	}
	return expr.Roll(r, crit)
}

// AverageDamage returns the expected value of a damage expression, falling
// back to 3.5 (the 1d6 average) when the expression cannot be parsed.
// Empty strings average to 0.
func AverageDamage(s string) float64 {
	if s == "" {
		return 0
	}

	expr, err := Parse(s)
	if err != nil {
		return 3.5
	}
	return expr.Average()
}
