// Package mapgen builds and explores the minesweeper-style overworld grid.
package mapgen

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/tatianab/truth-eroder/internal/models"
)

// Rand is the random source map generation draws from.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// Weights are the per-cell content probabilities. NONE takes the remainder.
type Weights struct {
	Shop     float64 `yaml:"shop"`
	Rest     float64 `yaml:"rest"`
	Roller   float64 `yaml:"roller"`
	Treasure float64 `yaml:"treasure"`
	Event    float64 `yaml:"event"`
}

// Config shapes a generated grid.
type Config struct {
	Size            int     `yaml:"size"`
	Mines           int     `yaml:"mines"`
	DangerThreshold int     `yaml:"danger_threshold"`
	Content         Weights `yaml:"content"`
}

// DefaultConfig is a 7x7 grid with 10 mines.
func DefaultConfig() Config {
	return Config{
		Size:            7,
		Mines:           10,
		DangerThreshold: 15,
		Content: Weights{
			Shop:     0.05,
			Rest:     0.07,
			Roller:   0.06,
			Treasure: 0.06,
			Event:    0.11,
		},
	}
}

var ErrBadConfig = errors.New("invalid map config")

// Create lays out a fresh grid with start revealed and the configured number
// of mines placed anywhere but start.
func Create(cfg Config, start models.Coord, rng Rand) (models.Grid, error) {
	if cfg.Size < 1 {
		return models.Grid{}, fmt.Errorf("%w: size %d", ErrBadConfig, cfg.Size)
	}
	cells := cfg.Size * cfg.Size
	if cfg.Mines < 0 || cfg.Mines > cells-1 {
		return models.Grid{}, fmt.Errorf("%w: %d mines on %d cells", ErrBadConfig, cfg.Mines, cells)
	}

	g := models.Grid{Size: cfg.Size, Nodes: make([]models.MapNode, cells), Pos: start}
	if !g.InBounds(start) {
		return models.Grid{}, fmt.Errorf("%w: start %v outside %dx%d", ErrBadConfig, start, cfg.Size, cfg.Size)
	}
	for y := 0; y < cfg.Size; y++ {
		for x := 0; x < cfg.Size; x++ {
			c := models.Coord{X: x, Y: y}
			g.Nodes[g.Index(c)] = models.MapNode{Pos: c, Type: models.NodeSafe, Content: models.ContentNone}
		}
	}
	startIdx := g.Index(start)
	g.Nodes[startIdx].Type = models.NodeStart
	g.Nodes[startIdx].Revealed = true

	// Rejection sampling: redraw on the start cell or an existing mine.
	mines := mapset.New[int]()
	for mines.Size() < cfg.Mines {
		i := rng.Intn(cells)
		if i == startIdx || mines.Has(i) {
			continue
		}
		mines.Put(i)
		g.Nodes[i].Type = models.NodeMine
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Type == models.NodeMine {
			continue
		}
		n.NeighborMines = countMines(g, n.Pos)
		if n.Type == models.NodeSafe {
			n.Content = rollContent(cfg.Content, rng)
		}
	}
	return g, nil
}

func countMines(g models.Grid, c models.Coord) int {
	count := 0
	for _, nb := range g.Neighbors(c) {
		if g.Nodes[g.Index(nb)].Type == models.NodeMine {
			count++
		}
	}
	return count
}

func rollContent(w Weights, rng Rand) models.Content {
	roll := rng.Float64()
	bands := []struct {
		p float64
		c models.Content
	}{
		{w.Shop, models.ContentShop},
		{w.Rest, models.ContentRest},
		{w.Roller, models.ContentRoller},
		{w.Treasure, models.ContentTreasure},
		{w.Event, models.ContentEvent},
	}
	acc := 0.0
	for _, b := range bands {
		acc += b.p
		if roll < acc {
			return b.c
		}
	}
	return models.ContentNone
}

// TriggerKind is what a reveal hands back to the run host.
type TriggerKind string

const (
	TriggerNone      TriggerKind = ""
	TriggerEncounter TriggerKind = "ENCOUNTER"
	TriggerBoss      TriggerKind = "BOSS"
	TriggerContent   TriggerKind = "CONTENT"
)

// Trigger describes the consequence of a successful reveal.
type Trigger struct {
	Kind    TriggerKind
	Content models.Content
	Node    models.MapNode
}

// Reveal moves onto pos. It is only valid for an unrevealed in-bounds cell
// at Manhattan distance exactly 1; anything else returns g unchanged and
// TriggerNone.
func Reveal(g models.Grid, pos models.Coord, cfg Config) (models.Grid, Trigger) {
	node, ok := g.Node(pos)
	if !ok || node.Revealed || g.Pos.Manhattan(pos) != 1 {
		return g, Trigger{}
	}

	g = g.Clone()
	idx := g.Index(pos)
	g.Nodes[idx].Revealed = true
	node = g.Nodes[idx]
	g.Pos = pos
	g.Explored++
	g.Danger += node.NeighborMines

	if node.Type == models.NodeMine {
		return g, Trigger{Kind: TriggerEncounter, Node: node}
	}
	if cfg.DangerThreshold > 0 && g.Danger >= cfg.DangerThreshold {
		g.Danger = 0
		return g, Trigger{Kind: TriggerBoss, Node: node}
	}
	if node.Content != models.ContentNone {
		return g, Trigger{Kind: TriggerContent, Content: node.Content, Node: node}
	}
	return g, Trigger{Node: node}
}

// Reroll re-rolls the content of every hidden safe cell.
func Reroll(g models.Grid, cfg Config, rng Rand) models.Grid {
	g = g.Clone()
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Revealed || n.Type != models.NodeSafe {
			continue
		}
		n.Content = rollContent(cfg.Content, rng)
	}
	return g
}

// ClearContent marks the cell at pos as spent.
func ClearContent(g models.Grid, pos models.Coord) models.Grid {
	if !g.InBounds(pos) {
		return g
	}
	g = g.Clone()
	g.Nodes[g.Index(pos)].Content = models.ContentNone
	return g
}

// Movable lists the cells a reveal would currently accept.
func Movable(g models.Grid) []models.Coord {
	var out []models.Coord
	for _, d := range []models.Coord{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}} {
		c := models.Coord{X: g.Pos.X + d.X, Y: g.Pos.Y + d.Y}
		if n, ok := g.Node(c); ok && !n.Revealed {
			out = append(out, c)
		}
	}
	return out
}
