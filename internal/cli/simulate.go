package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tatianab/truth-eroder/internal/engine"
	"github.com/tatianab/truth-eroder/internal/game"
	"github.com/tatianab/truth-eroder/internal/logger"
	"github.com/tatianab/truth-eroder/internal/sim"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play many runs headlessly and report how far they got",
	Long: `Plays one run per seed with a greedy bot. Flavor text always comes from the
static provider, so simulations never call the network.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(false)
		if err != nil {
			return err
		}
		defer e.Close()

		runs, _ := cmd.Flags().GetInt("runs")
		workers, _ := cmd.Flags().GetInt("workers")
		steps, _ := cmd.Flags().GetInt("max-steps")
		identity, _ := cmd.Flags().GetString("identity")

		base := e.cfg.SeedOrNow()
		seeds := make([]int64, runs)
		for i := range seeds {
			seeds[i] = base + int64(i)
		}

		start := time.Now()
		bar := progressbar.Default(int64(runs), "Simulating")
		sums, err := sim.Batch(cmd.Context(), func(seed int64) (game.Deps, error) {
			return e.deps(engine.Static{}, seed)
		}, e.options(), identity, seeds, workers, steps, bar)
		if err != nil {
			return err
		}

		st := sim.Aggregate(sums)
		logger.Log.WithFields(logrus.Fields{
			"runs":     st.Runs,
			"victory":  st.Victories,
			"duration": time.Since(start),
		}).Info("Simulation finished")

		fmt.Printf("\nRuns: %d  Victories: %d (%.1f%%)  Avg nodes: %.1f\n",
			st.Runs, st.Victories, 100*float64(st.Victories)/float64(max(st.Runs, 1)), st.AvgNodes)
		for _, r := range st.Regions() {
			fmt.Printf("  ended in %-7s %d\n", r, st.ByRegion[r])
		}
		return nil
	},
}

func init() {
	simulateCmd.Flags().Int("runs", 100, "number of runs")
	simulateCmd.Flags().Int("workers", 4, "runs played in parallel")
	simulateCmd.Flags().Int("max-steps", 5000, "actions per run before giving up")
	simulateCmd.Flags().String("identity", "id_scribe", "identity every run starts with")
	rootCmd.AddCommand(simulateCmd)
}
