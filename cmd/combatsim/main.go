// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

// Command combatsim runs headless combat evaluation batches and prints the
// aggregate statistics.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/KirkDiggler/combatsim/env"
	"github.com/KirkDiggler/combatsim/policy"
	"github.com/KirkDiggler/combatsim/rollout"
	"github.com/KirkDiggler/combatsim/runner"
	"github.com/KirkDiggler/combatsim/scenario"
	"github.com/KirkDiggler/combatsim/schema"
)

func main() {
	var (
		episodes    = flag.Int("episodes", 10, "episodes to run")
		seed        = flag.Int64("seed", 42, "base seed; episode i uses seed+i")
		numParty    = flag.Int("party", 2, "party members in the scenario")
		numEnemies  = flag.Int("enemies", 2, "enemies in the scenario")
		gridWidth   = flag.Int("grid-width", 15, "grid width in squares")
		gridHeight  = flag.Int("grid-height", 15, "grid height in squares")
		maxSteps    = flag.Int("max-steps", env.DefaultMaxSteps, "step cap before truncation")
		partyPolicy = flag.String("party-policy", string(env.PartySimple), "party behavior: simple or passive")
		policyName  = flag.String("policy", "heuristic", "enemy policy: heuristic or random")
		logDir      = flag.String("log-dir", "", "rollout log directory (empty disables logging)")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	var enemyPolicy policy.Policy
	switch *policyName {
	case "heuristic":
		enemyPolicy = policy.NewHeuristic(policy.HeuristicConfig{})
	case "random":
		enemyPolicy = policy.NewRandom()
	default:
		log.Fatal().Str("policy", *policyName).Msg("unknown policy")
	}

	logger, err := rollout.New(rollout.Config{
		Dir:     *logDir,
		Enabled: *logDir != "",
		Logger:  log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create rollout logger")
	}
	defer logger.Close()

	combatEnv := env.New(env.Config{
		Seed: *seed,
		Scenario: scenario.Config{
			NumParty:   *numParty,
			NumEnemies: *numEnemies,
			GridWidth:  *gridWidth,
			GridHeight: *gridHeight,
		},
		MaxSteps:    *maxSteps,
		PartyPolicy: env.PartyPolicy(*partyPolicy),
		Logger:      log,
	})

	log.Info().
		Str("engine", schema.Version).
		Int("n_obs", schema.TotalObservations).
		Int("n_act", schema.TotalActions).
		Int("episodes", *episodes).
		Str("policy", *policyName).
		Msg("starting batch")

	batch, err := runner.RunEpisodes(combatEnv, enemyPolicy, *episodes, *seed, logger, log)
	if err != nil {
		log.Fatal().Err(err).Msg("batch failed")
	}

	fmt.Printf("Episodes:            %d\n", batch.Episodes)
	fmt.Printf("Average Reward:      %.2f ± %.2f\n", batch.AvgReward, batch.StdReward)
	fmt.Printf("Average Steps:       %.1f\n", batch.AvgSteps)
	fmt.Printf("Average Damage:      %.1f\n", batch.AvgDamageDealt)
	fmt.Printf("Average Kills:       %.2f\n", batch.AvgKills)
	fmt.Printf("Invalid Action Rate: %.3f\n", batch.InvalidActionRate)
	fmt.Printf("Enemy Win Rate:      %.1f%%\n", batch.EnemyWinRate*100)
	fmt.Printf("Party Win Rate:      %.1f%%\n", batch.PartyWinRate*100)
}
