// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mechanics implements the deterministic combat primitives: movement
// and reachability on the weighted grid, attack/save/ability resolution, and
// start-of-turn processing.
//
// Every stochastic function takes a dice.Roller; nothing here reaches for
// hidden randomness, so identical rollers produce identical outcomes.
package mechanics
