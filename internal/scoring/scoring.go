// Package scoring maps a predicted score line and an actual result to points.
package scoring

// Point values per rule
const (
	ExactScore     = 3
	CorrectOutcome = 1
	WrongOutcome   = 0
)

// Outcome of a score line from the home side's point of view
type Outcome int

const (
	AwayWin Outcome = -1
	Draw    Outcome = 0
	HomeWin Outcome = 1
)

// OutcomeOf classifies a score line by the sign of home - away.
func OutcomeOf(home, away int) Outcome {
	switch diff := home - away; {
	case diff > 0:
		return HomeWin
	case diff < 0:
		return AwayWin
	default:
		return Draw
	}
}

// String returns a short label for the outcome
func (o Outcome) String() string {
	switch o {
	case HomeWin:
		return "home-win"
	case AwayWin:
		return "away-win"
	default:
		return "draw"
	}
}

// Points scores one prediction: 3 for the exact score, 1 for the right
// outcome (draws included), 0 otherwise.
func Points(predictedHome, predictedAway, actualHome, actualAway int) int {
	if predictedHome == actualHome && predictedAway == actualAway {
		return ExactScore
	}
	if OutcomeOf(predictedHome, predictedAway) == OutcomeOf(actualHome, actualAway) {
		return CorrectOutcome
	}
	return WrongOutcome
}
