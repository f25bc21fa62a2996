// Package prediction defines the two prediction shapes and their invariants.
//
// The two kinds are an explicit tagged variant rather than being told apart
// by which fields happen to be present: a Prediction carries a Kind and
// exactly one of the per-kind pick structs.
package prediction

import "fmt"

// Kind discriminates the two prediction shapes.
type Kind string

// Prediction kinds.
const (
	// KindSession covers qualifying and sprint sessions: three ranked picks.
	KindSession Kind = "session"
	// KindRace covers races: five ranked picks plus incident extras.
	KindRace Kind = "race"
)

// Pick position counts per kind.
const (
	SessionPickCount = 3
	RacePickCount    = 5
)

// PickCount returns how many ranked positions the kind carries.
func (k Kind) PickCount() int {
	if k == KindRace {
		return RacePickCount
	}
	return SessionPickCount
}

// SessionPicks holds the three ranked driver picks of a session-kind
// prediction. A zero driver id means the position is unset.
type SessionPicks struct {
	SessionID int
	P1        int
	P2        int
	P3        int
}

// Picks returns the ranked picks in position order.
func (p SessionPicks) Picks() []int { return []int{p.P1, p.P2, p.P3} }

// RacePicks holds the five ranked driver picks and the three auxiliary
// predicted facts of a race-kind prediction.
type RacePicks struct {
	SessionID int
	P1        int
	P2        int
	P3        int
	P4        int
	P5        int

	// VirtualSafetyCar predicts whether a VSC period occurs.
	VirtualSafetyCar bool
	// SafetyCar predicts whether a full safety car period occurs.
	// The wire name for this field is "sf".
	SafetyCar bool
	// DNFCount predicts how many cars fail to finish.
	DNFCount int
}

// Picks returns the ranked picks in position order.
func (p RacePicks) Picks() []int { return []int{p.P1, p.P2, p.P3, p.P4, p.P5} }

// Prediction is a stored prediction for one (user, session) pair. Exactly one
// of Session or Race is set, matching Kind.
type Prediction struct {
	ID        int
	UserID    int
	SessionID int
	Kind      Kind

	Session *SessionPicks
	Race    *RacePicks

	// Score is set by the server once the session's results are finalized.
	Score *float64
}

// Picks returns the ranked picks of whichever variant is set.
func (p *Prediction) Picks() []int {
	switch p.Kind {
	case KindRace:
		if p.Race != nil {
			return p.Race.Picks()
		}
	case KindSession:
		if p.Session != nil {
			return p.Session.Picks()
		}
	}
	return nil
}

// ValidatePicks checks that every position is set and no driver occupies two
// positions.
func ValidatePicks(picks []int) error {
	seen := make(map[int]int, len(picks))
	for i, id := range picks {
		if id == 0 {
			return fmt.Errorf("%w: position %d", ErrIncompletePicks, i+1)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: driver %d at positions %d and %d", ErrDuplicatePick, id, prev, i+1)
		}
		seen[id] = i + 1
	}
	return nil
}

// Validate checks the variant invariants: the tagged struct is present, all
// positions are set without duplicates, and a race DNF count is non-negative.
func (p *Prediction) Validate() error {
	switch p.Kind {
	case KindSession:
		if p.Session == nil {
			return fmt.Errorf("%w: session picks missing", ErrKindMismatch)
		}
		if p.Race != nil {
			return fmt.Errorf("%w: race picks on a session prediction", ErrKindMismatch)
		}
		return ValidatePicks(p.Session.Picks())
	case KindRace:
		if p.Race == nil {
			return fmt.Errorf("%w: race picks missing", ErrKindMismatch)
		}
		if p.Session != nil {
			return fmt.Errorf("%w: session picks on a race prediction", ErrKindMismatch)
		}
		if p.Race.DNFCount < 0 {
			return fmt.Errorf("%w: %d", ErrNegativeDNF, p.Race.DNFCount)
		}
		return ValidatePicks(p.Race.Picks())
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
}
