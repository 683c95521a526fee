package cli

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tatianab/truth-eroder/internal/combat"
	"github.com/tatianab/truth-eroder/internal/mapgen"
	"github.com/tatianab/truth-eroder/internal/models"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Generate a map and print it fully revealed",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(false)
		if err != nil {
			return err
		}
		defer e.Close()

		seed := e.cfg.SeedOrNow()
		opts := e.options()
		g, err := mapgen.Create(opts.Map, opts.Start, rand.New(rand.NewSource(seed)))
		if err != nil {
			return err
		}
		fmt.Printf("seed %d, %dx%d, %d mines\n\n", seed, g.Size, g.Size, opts.Map.Mines)
		fmt.Print(revealedGrid(g))
		return nil
	},
}

var cellGlyph = map[models.Content]string{
	models.ContentShop:     "$",
	models.ContentRest:     "R",
	models.ContentEvent:    "?",
	models.ContentTreasure: "T",
	models.ContentRoller:   "~",
}

func revealedGrid(g models.Grid) string {
	var b strings.Builder
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			n, _ := g.Node(models.Coord{X: x, Y: y})
			switch {
			case n.Type == models.NodeStart:
				b.WriteString("@")
			case n.Type == models.NodeMine:
				b.WriteString("*")
			case cellGlyph[n.Content] != "":
				b.WriteString(cellGlyph[n.Content])
			default:
				fmt.Fprint(&b, n.NeighborMines)
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

var combosCmd = &cobra.Command{
	Use:   "combos",
	Short: "List every combo in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(false)
		if err != nil {
			return err
		}
		defer e.Close()

		table, err := combat.NewComboTable(e.catalog.Combos, nil)
		if err != nil {
			return err
		}
		length, _ := cmd.Flags().GetInt("length")

		combos := table.All()
		slices.SortStableFunc(combos, func(a, b models.Combo) int { return len(a.Pattern) - len(b.Pattern) })
		for _, cb := range combos {
			if length > 0 && len(cb.Pattern) != length {
				continue
			}
			mark := " "
			if cb.Backfire {
				mark = "!"
			}
			fmt.Printf("%s %-8s %s\n", mark, cb.Key(), cb.Description)
		}
		fmt.Printf("\n%d combos\n", table.Len())
		return nil
	},
}

func init() {
	combosCmd.Flags().Int("length", 0, "only show combos of this many glyphs")
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(combosCmd)
}
