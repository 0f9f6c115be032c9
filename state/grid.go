// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package state

// Position is a pair of integer grid coordinates.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Chebyshev returns the Chebyshev distance to another position: the natural
// 8-connected grid distance.
func (p Position) Chebyshev(other Position) int {
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// TileKind identifies the terrain of a grid cell.
type TileKind string

// Tile kinds.
const (
	TileOpen      TileKind = "open"
	TileWall      TileKind = "wall"
	TileDifficult TileKind = "difficult"
	TileWater     TileKind = "water"
)

// BlockedMoveCost is the movement cost of impassable terrain.
const BlockedMoveCost = 999

// MoveCost returns the cost of entering a cell of this kind.
// Unknown kinds cost the same as open ground.
func (k TileKind) MoveCost() int {
	switch k {
	case TileDifficult:
		return 2
	case TileWall, TileWater:
		return BlockedMoveCost
	default:
		return 1
	}
}

// Blocked reports whether the kind is impassable terrain.
func (k TileKind) Blocked() bool {
	return k == TileWall || k == TileWater
}

// GridCell is a single cell of the combat grid.
type GridCell struct {
	Tile   TileKind `json:"tile"`
	Hazard string   `json:"hazard,omitempty"`
}

// Grid is the combat grid: a dense height x width array of cells.
type Grid struct {
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	SquareSizeFt int          `json:"square_size_ft"`
	Biome        string       `json:"biome"`
	Cells        [][]GridCell `json:"cells"`
}

// DefaultSquareSizeFt is the edge length of one grid square.
const DefaultSquareSizeFt = 5

// NewGrid creates a grid of open cells with the default square size.
func NewGrid(width, height int) *Grid {
	cells := make([][]GridCell, height)
	for y := range cells {
		cells[y] = make([]GridCell, width)
		for x := range cells[y] {
			cells[y][x] = GridCell{Tile: TileOpen}
		}
	}

	return &Grid{
		Width:        width,
		Height:       height,
		SquareSizeFt: DefaultSquareSizeFt,
		Biome:        "Forest",
		Cells:        cells,
	}
}

// InBounds reports whether (x, y) lies on the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// TileAt returns the tile kind at (x, y). Out-of-bounds coordinates are
// wall-equivalent.
func (g *Grid) TileAt(x, y int) TileKind {
	if !g.InBounds(x, y) {
		return TileWall
	}
	return g.Cells[y][x].Tile
}

// CellAt returns the cell at (x, y) and whether it is in bounds.
func (g *Grid) CellAt(x, y int) (GridCell, bool) {
	if !g.InBounds(x, y) {
		return GridCell{Tile: TileWall}, false
	}
	return g.Cells[y][x], true
}

// Clone deep-copies the grid.
func (g *Grid) Clone() *Grid {
	cells := make([][]GridCell, len(g.Cells))
	for y, row := range g.Cells {
		cells[y] = make([]GridCell, len(row))
		copy(cells[y], row)
	}

	clone := *g
	clone.Cells = cells
	return &clone
}
