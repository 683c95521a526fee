package models

// NodeType is the hidden type of a map cell.
type NodeType string

const (
	NodeStart NodeType = "START"
	NodeMine  NodeType = "MINE"
	NodeSafe  NodeType = "SAFE"
)

// Content is what a safe cell offers once revealed.
type Content string

const (
	ContentShop     Content = "SHOP"
	ContentRest     Content = "REST"
	ContentEvent    Content = "EVENT"
	ContentTreasure Content = "TREASURE"
	ContentRoller   Content = "ROLLER" // reshuffles the content of hidden cells
	ContentNone     Content = "NONE"
)

// MapNode is a single grid cell.
type MapNode struct {
	Pos           Coord    `yaml:"pos"`
	Revealed      bool     `yaml:"revealed"`
	Type          NodeType `yaml:"type"`
	NeighborMines int      `yaml:"neighbor_mines"`
	Content       Content  `yaml:"content"`
}

// Grid is the overworld for one region. Nodes are stored row-major.
type Grid struct {
	Size     int       `yaml:"size"`
	Nodes    []MapNode `yaml:"nodes"`
	Pos      Coord     `yaml:"pos"`
	Explored int       `yaml:"explored"`
	Danger   int       `yaml:"danger"`
}

// InBounds reports whether c lies on the grid.
func (g Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.Size && c.Y >= 0 && c.Y < g.Size
}

// Index returns the row-major index of c.
func (g Grid) Index(c Coord) int {
	return c.Y*g.Size + c.X
}

// Node returns the cell at c.
func (g Grid) Node(c Coord) (MapNode, bool) {
	if !g.InBounds(c) {
		return MapNode{}, false
	}
	return g.Nodes[g.Index(c)], true
}

// Neighbors lists the up-to-8 adjacent in-bounds coordinates of c.
func (g Grid) Neighbors(c Coord) []Coord {
	out := make([]Coord, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := Coord{X: c.X + dx, Y: c.Y + dy}
			if g.InBounds(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// Clone copies the node slice.
func (g Grid) Clone() Grid {
	g.Nodes = append([]MapNode(nil), g.Nodes...)
	return g
}
