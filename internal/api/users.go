package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/prode/internal/domain/types"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. The token is returned
// raw; persisting it is the caller's concern.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	var resp loginResponse
	err := c.doPublic(ctx, "login", http.MethodPost, "/auth/login", loginRequest{Username: username, Password: password}, &resp)
	if errors.Is(err, ErrAuth) || errors.Is(err, errNotFound) {
		return "", fmt.Errorf("%w: invalid credentials", ErrAuth)
	}
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: login response carried no token", ErrRemote)
	}
	return resp.Token, nil
}

type scoreResponse struct {
	Score *float64 `json:"score"`
	Year  int      `json:"year"`
}

// FetchScore returns a user's authoritative total for a season via the
// dedicated score-lookup endpoint. A nil score means the server has no total
// for that season yet.
func (c *Client) FetchScore(ctx context.Context, userID, year int) (*float64, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	path := fmt.Sprintf("/users/%d/score?year=%d", userID, year)
	var resp scoreResponse
	err := c.do(ctx, "score_lookup", http.MethodGet, path, nil, &resp)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp.Score, nil
}

// FetchMe returns the full authoritative user record, the fallback source
// for the embedded score when the dedicated lookup yields nothing.
func (c *Client) FetchMe(ctx context.Context, userID int) (*types.User, error) {
	if userID == 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	var u types.User
	err := c.do(ctx, "users", http.MethodGet, fmt.Sprintf("/users/%d", userID), nil, &u)
	if errors.Is(err, errNotFound) {
		return nil, fmt.Errorf("%w: user %d does not exist", ErrRemote, userID)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
