// Package render composes the read-only view of a locked-in prediction next
// to the session's authoritative top finishers.
package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/okian/prode/internal/domain/prediction"
	"github.com/okian/prode/internal/domain/types"
)

const (
	rowFormat = "%-4s %-25s %s\n"
	pending   = "(pending)"
)

// Composition writes the prediction/result table for one session. Results
// may be empty (not graded yet); missing positions render as pending.
func Composition(w io.Writer, session types.Session, p *prediction.Prediction, roster []types.Driver, results []types.ResultRow) error {
	if p == nil {
		return ErrNoPrediction
	}

	names := make(map[int]string, len(roster))
	for _, d := range roster {
		names[d.ID] = d.Name
	}
	actual := make(map[int]string, len(results))
	for _, r := range results {
		if r.DriverName != "" {
			actual[r.Position] = r.DriverName
			continue
		}
		actual[r.Position] = driverName(names, r.DriverID)
	}

	if _, err := fmt.Fprintf(w, "%s - %s (%s)\n\n", session.Name, session.Country, session.Circuit); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, rowFormat, "Pos", "Predicted", "Actual"); err != nil {
		return err
	}
	for i, pick := range p.Picks() {
		finisher, ok := actual[i+1]
		if !ok {
			finisher = pending
		}
		if _, err := fmt.Fprintf(w, rowFormat, fmt.Sprintf("P%d", i+1), driverName(names, pick), finisher); err != nil {
			return err
		}
	}

	if p.Kind == prediction.KindRace && p.Race != nil {
		if _, err := fmt.Fprintf(w, "\nVSC: %s  SC: %s  DNF: %d\n", yesNo(p.Race.VirtualSafetyCar), yesNo(p.Race.SafetyCar), p.Race.DNFCount); err != nil {
			return err
		}
	}

	score := "pending"
	if p.Score != nil {
		score = strconv.FormatFloat(*p.Score, 'f', -1, 64)
	}
	_, err := fmt.Fprintf(w, "\nScore: %s\n", score)
	return err
}

func driverName(names map[int]string, id int) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("driver %d", id)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
