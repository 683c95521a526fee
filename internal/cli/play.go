package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tatianab/truth-eroder/internal/models"
	"github.com/tatianab/truth-eroder/internal/tui"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start or resume a run in the terminal UI",
	Long: `Opens the full-screen UI. Runs are autosaved whenever you are back on the
map; pass --resume to continue one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(true)
		if err != nil {
			return err
		}
		defer e.Close()

		saveName, _ := cmd.Flags().GetString("save")
		resume, _ := cmd.Flags().GetString("resume")

		var snap *models.RunSnapshot
		if resume != "" {
			snap, err = models.LoadRun(resume)
			if err != nil {
				return err
			}
			saveName = resume
		}

		ctx := cmd.Context()
		flavor, release, err := e.flavor(ctx)
		if err != nil {
			return err
		}
		defer release()

		seed := e.cfg.SeedOrNow()
		if snap != nil {
			seed = snap.Meta.Seed
		}
		deps, err := e.deps(flavor, seed)
		if err != nil {
			return err
		}

		if err := tui.Run(tui.Config{
			Deps:     deps,
			Options:  e.options(),
			Seed:     seed,
			SaveName: saveName,
			Resume:   snap,
		}); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		return nil
	},
}

var savesCmd = &cobra.Command{
	Use:   "saves",
	Short: "List saved runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(false)
		if err != nil {
			return err
		}
		defer e.Close()

		names, err := models.ListRuns()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No saved runs.")
			return nil
		}
		for _, name := range names {
			snap, err := models.LoadRun(name)
			if err != nil {
				fmt.Printf("%-16s (unreadable: %v)\n", name, err)
				continue
			}
			state := "in progress"
			switch {
			case snap.Meta.Victory:
				state = "victory"
			case snap.Meta.GameOver:
				state = "game over"
			}
			fmt.Printf("%-16s %-10s %-7s day %d, resource %d/%d, %s\n",
				name, snap.Meta.Identity, snap.Player.Region, snap.Player.Day,
				snap.Player.Resource, snap.Player.MaxResource, state)
		}
		return nil
	},
}

func init() {
	playCmd.Flags().String("save", "current", "name to autosave the run under")
	playCmd.Flags().String("resume", "", "resume the named saved run")
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(savesCmd)
}
