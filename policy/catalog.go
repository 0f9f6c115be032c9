// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Package policy provides baseline enemy policies built purely on the public
// environment contract: the action mask, the target ranking, and parsed
// damage estimates. Nothing here reaches into resolution internals.
package policy

import (
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/KirkDiggler/combatsim/rpgerr"
)

// Modifiers are the decision biases a trait grants.
type Modifiers struct {
	PreferMelee   bool
	PreferRanged  bool
	HitAndRun     bool
	PreferDamage  bool
	PreferControl bool
	ReachBonus    int
}

// merge folds another modifier set into this one.
func (m *Modifiers) merge(other Modifiers) {
	m.PreferMelee = m.PreferMelee || other.PreferMelee
	m.PreferRanged = m.PreferRanged || other.PreferRanged
	m.HitAndRun = m.HitAndRun || other.HitAndRun
	m.PreferDamage = m.PreferDamage || other.PreferDamage
	m.PreferControl = m.PreferControl || other.PreferControl
	m.ReachBonus += other.ReachBonus
}

// BonusEnv is the evaluation environment for a catalog entry's bonus
// expression.
type BonusEnv struct {
	// Utility is the option's base utility before the bonus.
	Utility float64 `expr:"utility"`
	// Distance is the Chebyshev distance to the option's target in squares.
	Distance int `expr:"distance"`
	// TargetHP is the target's current hit points.
	TargetHP int `expr:"target_hp"`
	// ActionType is "melee", "ranged", "spell_attack" or "spell_save".
	ActionType string `expr:"action_type"`
}

// CatalogEntry describes one trait keyword: the substring that activates it,
// the modifiers it grants, and an optional bonus expression re-scoring each
// option. The expression must evaluate to the adjusted utility (float).
type CatalogEntry struct {
	Match     string
	Modifiers Modifiers
	Bonus     string
}

// compiledEntry pairs an entry with its compiled bonus program.
type compiledEntry struct {
	CatalogEntry
	program *vm.Program
}

// Catalog is an explicit trait-catalog record passed into policy
// construction. There is no process-wide catalog; callers own theirs.
type Catalog struct {
	entries []compiledEntry
}

// CatalogConfig configures a catalog.
type CatalogConfig struct {
	Entries []CatalogEntry
}

// NewCatalog compiles a catalog. Bonus expressions are compiled once here;
// a malformed expression fails construction rather than every decision.
func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	c := &Catalog{entries: make([]compiledEntry, 0, len(cfg.Entries))}

	for _, entry := range cfg.Entries {
		if entry.Match == "" {
			return nil, rpgerr.InvalidArgument("catalog entry with empty match")
		}

		compiled := compiledEntry{CatalogEntry: entry}
		if entry.Bonus != "" {
			program, err := expr.Compile(entry.Bonus, expr.Env(BonusEnv{}), expr.AsFloat64())
			if err != nil {
				return nil, rpgerr.WrapWithCode(err, rpgerr.CodeInvalidArgument,
					"compile bonus expression",
					rpgerr.WithMeta("match", entry.Match))
			}
			compiled.program = program
		}
		c.entries = append(c.entries, compiled)
	}

	return c, nil
}

// DefaultCatalog returns the stock trait catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(CatalogConfig{Entries: []CatalogEntry{
		{Match: "skirmisher", Modifiers: Modifiers{HitAndRun: true}},
		{Match: "nimble", Modifiers: Modifiers{HitAndRun: true}},
		{Match: "brute", Modifiers: Modifiers{PreferDamage: true}},
		{Match: "reckless", Modifiers: Modifiers{PreferDamage: true}},
		{Match: "reach", Modifiers: Modifiers{ReachBonus: 1}},
		{Match: "sniper", Modifiers: Modifiers{PreferRanged: true}},
		{Match: "controller", Modifiers: Modifiers{PreferControl: true}},
		// Ambushers go hard at wounded targets.
		{Match: "ambusher", Bonus: "target_hp <= 10 ? utility * 1.3 : utility"},
	}})
	if err != nil {
		// The stock entries are constants; a compile failure is a bug.
		panic(err)
	}
	return c
}

// ModifiersFor merges the modifiers of every entry whose match appears in
// the trait text.
func (c *Catalog) ModifiersFor(traits string) Modifiers {
	lower := strings.ToLower(traits)

	var mods Modifiers
	for _, entry := range c.entries {
		if strings.Contains(lower, strings.ToLower(entry.Match)) {
			mods.merge(entry.Modifiers)
		}
	}
	return mods
}

// AdjustUtility runs the bonus expressions of every matching entry over an
// option's utility. A runtime evaluation failure keeps the unadjusted value.
func (c *Catalog) AdjustUtility(traits string, env BonusEnv) float64 {
	lower := strings.ToLower(traits)
	utility := env.Utility

	for _, entry := range c.entries {
		if entry.program == nil || !strings.Contains(lower, strings.ToLower(entry.Match)) {
			continue
		}

		env.Utility = utility
		out, err := expr.Run(entry.program, env)
		if err != nil {
			continue
		}
		if adjusted, ok := out.(float64); ok {
			utility = adjusted
		}
	}

	return utility
}
