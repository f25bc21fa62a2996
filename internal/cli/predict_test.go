package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/prode/internal/store"
)

func testToken(t *testing.T, userID int) string {
	t.Helper()
	header, err := json.Marshal(map[string]any{"alg": "none", "typ": "JWT"})
	require.NoError(t, err)
	payload, err := json.Marshal(map[string]any{
		"user_id":  userID,
		"username": "kian",
		"role":     "user",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)
	return fmt.Sprintf("%s.%s.",
		base64.RawURLEncoding.EncodeToString(header),
		base64.RawURLEncoding.EncodeToString(payload),
	)
}

// predictBackend serves the minimum surface the predict command touches and
// counts race submissions.
func predictBackend(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var submits atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions/501", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           501,
			"session_type": "Race",
			"session_name": "Race",
			"date_start":   time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		})
	})
	mux.HandleFunc("GET /drivers", func(w http.ResponseWriter, r *http.Request) {
		drivers := make([]map[string]any, 0, 6)
		for id := 1; id <= 6; id++ {
			drivers = append(drivers, map[string]any{"id": id, "full_name": fmt.Sprintf("Driver %d", id)})
		}
		_ = json.NewEncoder(w).Encode(drivers)
	})
	mux.HandleFunc("GET /prodes/user/{user}/session/{session}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("POST /prodes/carrera", func(w http.ResponseWriter, r *http.Request) {
		submits.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = 1
		body["score"] = nil
		_ = json.NewEncoder(w).Encode(body)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &submits
}

// runPredictCommand points env config at a logged-in store and executes the
// root command with the given args, returning the error and captured stdout.
func runPredictCommand(t *testing.T, backendURL string, args ...string) (string, error) {
	t.Helper()
	storePath := filepath.Join(t.TempDir(), "store.json")
	st, err := store.Open(storePath)
	require.NoError(t, err)
	require.NoError(t, st.Set(store.KeyToken, testToken(t, 7)))

	t.Setenv("PRODE_BASE_URL", backendURL)
	t.Setenv("PRODE_STORE_PATH", storePath)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestPredictRejectsNegativeDNF(t *testing.T) {
	srv, submits := predictBackend(t)

	out, err := runPredictCommand(t, srv.URL,
		"predict", "race", "501",
		"--p1", "1", "--p2", "2", "--p3", "3", "--p4", "4", "--p5", "5",
		"--dnf", "-1",
	)
	require.Error(t, err, "a refused submission must not exit zero")
	assert.Contains(t, err.Error(), "dnf")
	assert.Zero(t, submits.Load(), "nothing may reach the backend")
	assert.NotContains(t, out, "saved")
}

func TestPredictRejectsZeroDriverID(t *testing.T) {
	srv, submits := predictBackend(t)

	out, err := runPredictCommand(t, srv.URL,
		"predict", "race", "501",
		"--p1", "0", "--p2", "2", "--p3", "3", "--p4", "4", "--p5", "5",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--p1")
	assert.Zero(t, submits.Load())
	assert.NotContains(t, out, "saved")
}

func TestPredictSubmitsCompleteRaceForm(t *testing.T) {
	srv, submits := predictBackend(t)

	out, err := runPredictCommand(t, srv.URL,
		"predict", "race", "501",
		"--p1", "1", "--p2", "2", "--p3", "3", "--p4", "4", "--p5", "5",
		"--dnf", "2", "--vsc",
	)
	require.NoError(t, err)
	assert.Equal(t, int64(1), submits.Load())
	assert.Contains(t, out, "prediction saved for session 501")
}
