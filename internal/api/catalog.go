package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/prode/internal/domain/types"
)

// FetchDrivers returns the full driver roster. A 404 means the roster is not
// published yet and maps to an empty slice.
func (c *Client) FetchDrivers(ctx context.Context) ([]types.Driver, error) {
	var drivers []types.Driver
	err := c.do(ctx, "drivers", http.MethodGet, "/drivers", nil, &drivers)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return drivers, nil
}

// FetchSession returns the metadata of one session. Unlike the roster and
// result lookups, a missing session is a real error.
func (c *Client) FetchSession(ctx context.Context, sessionID int) (types.Session, error) {
	var s types.Session
	err := c.do(ctx, "sessions", http.MethodGet, fmt.Sprintf("/sessions/%d", sessionID), nil, &s)
	if errors.Is(err, errNotFound) {
		return types.Session{}, fmt.Errorf("%w: session %d does not exist", ErrRemote, sessionID)
	}
	if err != nil {
		return types.Session{}, err
	}
	return s, nil
}

// FetchTopResults returns the first limit finishing positions of a session's
// authoritative results. A 404 means results are not in yet and maps to an
// empty slice.
func (c *Client) FetchTopResults(ctx context.Context, sessionID, limit int) ([]types.ResultRow, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrValidation)
	}
	path := fmt.Sprintf("/results/session/%d?limit=%d", sessionID, limit)
	var rows []types.ResultRow
	err := c.do(ctx, "results", http.MethodGet, path, nil, &rows)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}
