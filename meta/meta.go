// Package meta holds the defaults shared by the command line, matches and experiments.
package meta

// BoardSize is the standard board edge.
const BoardSize = 19

// Komi is the compensation given to white.
const Komi = 7.5

// Simulations per move for the baseline engine.
const Simulations = 800

// RolloutLimit caps the number of moves in a random playout.
const RolloutLimit = 300

const Exploration = 1.4

// MaxMoves ends a game that has not finished with two passes.
const MaxMoves = 2 * BoardSize * BoardSize

// Goroutines used by a single search.
const Goroutines = 1
