package engine

// HandScore returns the sum of card scores in a hand.
func HandScore(hand []Card) int {
	total := 0
	for _, c := range hand {
		total += c.Score
	}
	return total
}

// WinnerPoints returns the points the winner collects: the summed scores of
// every other player's hand. It is zero until the game is over.
func (g *GameState) WinnerPoints() int {
	if !g.IsOver() {
		return 0
	}
	points := 0
	for i := range g.Players {
		if i != g.Winner {
			points += HandScore(g.Players[i].Hand)
		}
	}
	return points
}
