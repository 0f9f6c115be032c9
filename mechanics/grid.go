// Copyright (C) 2024 Kirk Diggler
// SPDX-License-Identifier: GPL-3.0-or-later

package mechanics

import (
	"container/heap"

	"github.com/KirkDiggler/combatsim/state"
)

// IsBlocked reports whether a cell cannot be entered: out of bounds, blocked
// terrain, or occupied by an alive actor other than exclude. Downed actors
// do not block.
func IsBlocked(s *state.GameState, x, y int, exclude *state.Actor) bool {
	if !s.Grid.InBounds(x, y) {
		return true
	}
	if s.Grid.TileAt(x, y).Blocked() {
		return true
	}

	for _, roster := range [][]*state.Actor{s.Party, s.Enemies} {
		for _, a := range roster {
			if a == exclude || !a.Alive() {
				continue
			}
			if a.Pos.X == x && a.Pos.Y == y {
				return true
			}
		}
	}

	return false
}

// RangeSquares converts a range in feet to grid squares, never below 1 so
// melee reach always covers adjacent cells.
func RangeSquares(rangeFt, squareSizeFt int) int {
	squares := rangeFt / squareSizeFt
	if squares < 1 {
		return 1
	}
	return squares
}

// MovementBudget returns the actor's full movement allowance in squares.
func MovementBudget(s *state.GameState, a *state.Actor) int {
	return a.SpeedFt / s.Grid.SquareSizeFt
}

// RemainingMovement returns the squares of movement the acting actor still
// has this turn.
func RemainingMovement(s *state.GameState, a *state.Actor) int {
	remaining := MovementBudget(s, a) - s.MovementUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// eight-connected neighborhood
var directions = [8][2]int{
	{-1, 0}, {1, 0}, {0, -1}, {0, 1},
	{-1, -1}, {-1, 1}, {1, -1}, {1, 1},
}

type searchNode struct {
	cost int
	x, y int
}

// searchQueue orders nodes by accumulated cost, then coordinates for
// deterministic pop order.
type searchQueue []searchNode

func (q searchQueue) Len() int { return len(q) }
func (q searchQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	if q[i].x != q[j].x {
		return q[i].x < q[j].x
	}
	return q[i].y < q[j].y
}
func (q searchQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *searchQueue) Push(v any) { *q = append(*q, v.(searchNode)) }
func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	v := old[n-1]
	*q = old[:n-1]
	return v
}

// DijkstraReachable finds every cell reachable from start within maxCost,
// expanding the 8-connected neighborhood weighted by tile move cost. The
// result maps each reachable position (including start, at cost 0) to its
// cheapest accumulated cost.
func DijkstraReachable(s *state.GameState, start state.Position, maxCost int, exclude *state.Actor) map[state.Position]int {
	visited := make(map[state.Position]int)

	pq := &searchQueue{{cost: 0, x: start.X, y: start.Y}}
	heap.Init(pq)

	for pq.Len() > 0 {
		node := heap.Pop(pq).(searchNode)
		pos := state.Position{X: node.x, Y: node.y}

		if _, seen := visited[pos]; seen {
			continue
		}
		visited[pos] = node.cost

		for _, d := range directions {
			nx, ny := node.x+d[0], node.y+d[1]

			if _, seen := visited[state.Position{X: nx, Y: ny}]; seen {
				continue
			}
			if IsBlocked(s, nx, ny, exclude) {
				continue
			}

			next := node.cost + s.Grid.TileAt(nx, ny).MoveCost()
			if next <= maxCost {
				heap.Push(pq, searchNode{cost: next, x: nx, y: ny})
			}
		}
	}

	return visited
}
