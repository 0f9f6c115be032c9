// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package dice

import (
	"fmt"
	"math/rand"
)

// Roller is the interface for random number generation in the dice package.
// The combat engine threads a single Roller through every stochastic call;
// there is no hidden global randomness.
//
//go:generate mockgen -destination=mock/mock_roller.go -package=mock_dice github.com/KirkDiggler/combatsim/dice Roller
type Roller interface {
	// Roll returns a random number from 1 to size (inclusive).
	// Returns an error if size <= 0.
	Roll(size int) (int, error)

	// RollN rolls count dice of the given size.
	// Returns a slice containing each individual roll result.
	// Returns an error if size <= 0 or count < 0.
	RollN(count, size int) ([]int, error)
}

// SeededRoller implements Roller with a deterministic PRNG. Two SeededRollers
// created from the same seed produce identical roll sequences, which is what
// makes environment trajectories reproducible.
//
// SeededRoller is not safe for concurrent use; each environment instance owns
// exactly one.
type SeededRoller struct {
	rng *rand.Rand
}

// NewSeededRoller creates a roller whose entire roll sequence is determined
// by seed.
func NewSeededRoller(seed int64) *SeededRoller {
	return &SeededRoller{rng: rand.New(rand.NewSource(seed))}
}

// Roll returns a number from 1 to size.
func (r *SeededRoller) Roll(size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("dice: invalid die size %d", size)
	}
	return r.rng.Intn(size) + 1, nil
}

// RollN rolls count dice of the given size.
func (r *SeededRoller) RollN(count, size int) ([]int, error) {
	if size <= 0 {
		return nil, fmt.Errorf("dice: invalid die size %d", size)
	}
	if count < 0 {
		return nil, fmt.Errorf("dice: invalid die count %d", count)
	}

	results := make([]int, count)
	for i := 0; i < count; i++ {
		roll, err := r.Roll(size)
		if err != nil {
			return nil, err
		}
		results[i] = roll
	}
	return results, nil
}

// Sum rolls count dice of the given size and returns their total.
// Die sizes in the engine are fixed positive constants, so the error from the
// underlying roller is treated as a programmer error.
func Sum(r Roller, count, size int) int {
	total := 0
	for i := 0; i < count; i++ {
		roll, err := r.Roll(size)
		if err != nil {
			panic(fmt.Sprintf("dice: roll %dd%d: %v", count, size, err))
		}
		total += roll
	}
	return total
}

// D20 rolls a single d20.
func D20(r Roller) int {
	return Sum(r, 1, 20)
}
