package opt

import (
	"math"

	"parkday/internal/park"
)

// Base walking speed on the park grid, meters per minute at moderate pace.
const baseWalkSpeed = 80.0

// WalkMinutes estimates travel time between two park locations for a
// given party. Monotonic in pace: slow > moderate > fast.
func WalkMinutes(a, b park.Coordinate, party Party, t Tuning) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dist := math.Sqrt(dx*dx + dy*dy)
	mult, ok := t.PaceMultipliers[party.Pace]
	if !ok {
		mult = 1.0
	}
	if party.Stroller {
		mult *= 1.15
	}
	if party.MobilityAid {
		mult *= 1.3
	}
	return dist / baseWalkSpeed * mult
}
