package engine

// CountTiles counts the tiles of a given type in the grid
func CountTiles(grid [][]Tile, tileType TileType) int {
	count := 0
	for _, row := range grid {
		for _, tile := range row {
			if tile.Type == tileType {
				count++
			}
		}
	}
	return count
}

// FinishPositions returns the coordinates of every finish tile.
func FinishPositions(board *Board) []Position {
	var finishes []Position
	for y, row := range board.Grid {
		for x, tile := range row {
			if tile.Type == Finish {
				finishes = append(finishes, Position{X: x, Y: y})
			}
		}
	}
	return finishes
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// NearestFinish returns the closest finish tile to pos and its distance.
// The boolean is false when the board has no finish tiles.
func NearestFinish(board *Board, pos Position) (Position, int, bool) {
	minDistance := -1
	var nearest Position
	found := false

	for _, finish := range FinishPositions(board) {
		distance := ManhattanDistance(pos, finish)
		if minDistance == -1 || distance < minDistance {
			minDistance = distance
			nearest = finish
			found = true
		}
	}

	return nearest, minDistance, found
}
