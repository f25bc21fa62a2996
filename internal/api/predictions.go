package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/prode/internal/domain/prediction"
)

// predictionRow mirrors the backend's prediction record. The backend tells
// the two shapes apart only by which fields are present; this is the one
// place that ambiguity is allowed to exist, translated into the tagged
// domain type at the edge.
type predictionRow struct {
	ID        int      `json:"id"`
	UserID    int      `json:"user_id"`
	SessionID int      `json:"session_id"`
	P1        *int     `json:"p1"`
	P2        *int     `json:"p2"`
	P3        *int     `json:"p3"`
	P4        *int     `json:"p4"`
	P5        *int     `json:"p5"`
	VSC       *bool    `json:"vsc"`
	SF        *bool    `json:"sf"`
	DNF       *int     `json:"dnf"`
	Score     *float64 `json:"score"`
}

func (r predictionRow) toDomain() *prediction.Prediction {
	p := &prediction.Prediction{
		ID:        r.ID,
		UserID:    r.UserID,
		SessionID: r.SessionID,
		Score:     r.Score,
	}
	if r.P4 != nil || r.P5 != nil || r.DNF != nil {
		p.Kind = prediction.KindRace
		p.Race = &prediction.RacePicks{
			SessionID:        r.SessionID,
			P1:               intOrZero(r.P1),
			P2:               intOrZero(r.P2),
			P3:               intOrZero(r.P3),
			P4:               intOrZero(r.P4),
			P5:               intOrZero(r.P5),
			VirtualSafetyCar: boolOrFalse(r.VSC),
			SafetyCar:        boolOrFalse(r.SF),
			DNFCount:         intOrZero(r.DNF),
		}
		return p
	}
	p.Kind = prediction.KindSession
	p.Session = &prediction.SessionPicks{
		SessionID: r.SessionID,
		P1:        intOrZero(r.P1),
		P2:        intOrZero(r.P2),
		P3:        intOrZero(r.P3),
	}
	return p
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func boolOrFalse(v *bool) bool {
	if v == nil {
		return false
	}
	return *v
}

// sessionSubmitRequest is the body of POST /prodes/session.
type sessionSubmitRequest struct {
	UserID    int `json:"user_id"`
	SessionID int `json:"session_id"`
	P1        int `json:"p1"`
	P2        int `json:"p2"`
	P3        int `json:"p3"`
}

// raceSubmitRequest is the body of POST /prodes/carrera. The safety-car
// field travels as "sf"; that is the backend's canonical name.
type raceSubmitRequest struct {
	UserID    int  `json:"user_id"`
	SessionID int  `json:"session_id"`
	P1        int  `json:"p1"`
	P2        int  `json:"p2"`
	P3        int  `json:"p3"`
	P4        int  `json:"p4"`
	P5        int  `json:"p5"`
	VSC       bool `json:"vsc"`
	SF        bool `json:"sf"`
	DNF       int  `json:"dnf"`
}

type recomputeResponse struct {
	Message string `json:"message"`
}

// FetchExisting looks up the prediction for a (user, session) pair. A
// well-formed "not found" outcome (404, or 200 with an empty result set)
// yields (nil, nil), not an error.
func (c *Client) FetchExisting(ctx context.Context, userID, sessionID int) (*prediction.Prediction, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	path := fmt.Sprintf("/prodes/user/%d/session/%d", userID, sessionID)
	var rows []predictionRow
	err := c.do(ctx, "prode_lookup", http.MethodGet, path, nil, &rows)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toDomain(), nil
}

// SubmitSession upserts a session-kind prediction. All three picks are
// required; a missing user id fails before any network call.
func (c *Client) SubmitSession(ctx context.Context, userID int, picks prediction.SessionPicks) (*prediction.Prediction, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := prediction.ValidatePicks(picks.Picks()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	body := sessionSubmitRequest{
		UserID:    userID,
		SessionID: picks.SessionID,
		P1:        picks.P1,
		P2:        picks.P2,
		P3:        picks.P3,
	}
	var row predictionRow
	if err := c.do(ctx, "prode_session", http.MethodPost, "/prodes/session", body, &row); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// SubmitRace upserts a race-kind prediction. All five picks are required and
// the DNF count must be non-negative; a missing user id fails before any
// network call.
func (c *Client) SubmitRace(ctx context.Context, userID int, picks prediction.RacePicks) (*prediction.Prediction, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if err := prediction.ValidatePicks(picks.Picks()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if picks.DNFCount < 0 {
		return nil, fmt.Errorf("%w: dnf count must be non-negative", ErrValidation)
	}

	body := raceSubmitRequest{
		UserID:    userID,
		SessionID: picks.SessionID,
		P1:        picks.P1,
		P2:        picks.P2,
		P3:        picks.P3,
		P4:        picks.P4,
		P5:        picks.P5,
		VSC:       picks.VirtualSafetyCar,
		SF:        picks.SafetyCar,
		DNF:       picks.DNFCount,
	}
	var row predictionRow
	if err := c.do(ctx, "prode_race", http.MethodPost, "/prodes/carrera", body, &row); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// RecomputeScores asks the server to regrade every prediction of a session.
// It requires an installed credential and fails before the call otherwise.
// Refreshing the local score cache afterwards is the caller's job.
func (c *Client) RecomputeScores(ctx context.Context, kind prediction.Kind, sessionID int) (string, error) {
	if err := c.requireCredential(); err != nil {
		return "", err
	}
	var path string
	switch kind {
	case prediction.KindRace:
		path = fmt.Sprintf("/prodes/carrera/%d/score", sessionID)
	case prediction.KindSession:
		path = fmt.Sprintf("/prodes/session/%d/score", sessionID)
	default:
		return "", fmt.Errorf("%w: unknown prediction kind %q", ErrValidation, kind)
	}

	var resp recomputeResponse
	if err := c.do(ctx, "prode_recompute", http.MethodPost, path, nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return "", fmt.Errorf("%w: session %d has no predictions to score", ErrRemote, sessionID)
		}
		return "", err
	}
	return resp.Message, nil
}
