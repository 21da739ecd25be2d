package mcts

import "math"

// The exploration constant of the UCT score
var ExplorationConstant = math.Sqrt2

// Compute the UCT score of a child.
//
// A child that has never been visited scores +Inf so that it is tried before any visited sibling.
func UCT(parentVisits, visits uint32, reward float64) float64 {
	if visits == 0 {
		return math.Inf(1)
	}
	exploitation := reward / float64(visits)
	exploration := ExplorationConstant * math.Sqrt(2*math.Log(float64(max(1, parentVisits)))/float64(visits))
	return exploitation + exploration
}
