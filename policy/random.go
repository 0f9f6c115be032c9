// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package policy

import (
	"github.com/KirkDiggler/combatsim/actions"
	"github.com/KirkDiggler/combatsim/dice"
	"github.com/KirkDiggler/combatsim/schema"
	"github.com/KirkDiggler/combatsim/state"
)

// Random selects uniformly among valid actions. It is the floor every
// learned policy should beat.
type Random struct{}

// NewRandom creates the random policy.
func NewRandom() *Random {
	return &Random{}
}

// SelectAction implements Policy.
func (p *Random) SelectAction(s *state.GameState, enemyIdx int, r dice.Roller) int {
	mask := actions.Mask(s, enemyIdx)

	valid := make([]int, 0, len(mask))
	for i, ok := range mask {
		if ok {
			valid = append(valid, i)
		}
	}

	if len(valid) == 0 {
		return schema.EndTurnAction
	}
	return valid[dice.Sum(r, 1, len(valid))-1]
}
