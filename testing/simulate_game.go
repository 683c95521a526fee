package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/tatianab/truth-eroder/internal/config"
	"github.com/tatianab/truth-eroder/internal/data"
	"github.com/tatianab/truth-eroder/internal/engine"
	"github.com/tatianab/truth-eroder/internal/game"
	"github.com/tatianab/truth-eroder/internal/sim"
)

const maxSteps = 400

// Plays one run with the greedy bot and prints every log line, using Gemini
// for flavor text when a key is configured.
func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var flavor engine.Provider = engine.Static{}
	if !cfg.Offline() {
		eng, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to create engine: %v", err)
		}
		defer eng.Close()
		flavor = engine.WithFallback(eng, engine.Static{})
	}

	catalog, err := data.Load()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	seed := cfg.SeedOrNow()
	deps, err := game.NewDeps(catalog, flavor, rand.New(rand.NewSource(seed)))
	if err != nil {
		log.Fatalf("Failed to build deps: %v", err)
	}

	run, err := game.NewRun(deps, game.DefaultOptions(), "id_scribe", seed)
	if err != nil {
		log.Fatalf("Failed to start run: %v", err)
	}
	fmt.Printf("--- Seed %d ---\n", seed)

	bot := sim.NewBot(seed)
	lookup := func(key string) bool {
		cb, ok := deps.Resolver.Combos().Lookup(key)
		return ok && !cb.Backfire
	}

	seen := 0
	for step := 1; step <= maxSteps && !run.Over(); step++ {
		phase := run.Phase
		if err := bot.Step(ctx, run, lookup); err != nil {
			fmt.Printf("Step %d (%s) stopped: %v\n", step, phase, err)
			break
		}
		for _, line := range run.Log[seen:] {
			fmt.Println("  " + line)
		}
		seen = len(run.Log)
		if phase == game.PhaseCombat && run.Phase != game.PhaseCombat {
			fmt.Println(strings.Repeat("-", 40))
		}
		if run.Narration != "" && run.Phase == game.PhaseCombat && phase != game.PhaseCombat {
			fmt.Printf("Narration: %s\n", run.Narration)
		}
	}

	p := run.Player
	fmt.Printf("\nEnded in %s after %d nodes: region %s, day %d, resource %d/%d, sanity %d/%d, combos %d\n",
		run.Phase, p.NodesCleared, p.Region, p.Day, p.Resource, p.MaxResource, p.Sanity, p.MaxSanity, len(p.DiscoveredCombos))
}
