package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prode/internal/domain/prediction"
	"github.com/okian/prode/internal/domain/types"
)

func unsignedToken(claims map[string]any) string {
	header, _ := json.Marshal(map[string]any{"alg": "none", "typ": "JWT"})
	payload, _ := json.Marshal(claims)
	return fmt.Sprintf("%s.%s.",
		base64.RawURLEncoding.EncodeToString(header),
		base64.RawURLEncoding.EncodeToString(payload),
	)
}

func TestSessionLifecycle(t *testing.T) {
	Convey("Given a backend and a fresh store", t, func() {
		var loginCalls, scoreCalls, recomputeCalls int

		mux := http.NewServeMux()
		mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
			loginCalls++
			var body struct{ Username, Password string }
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if body.Password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			tok := unsignedToken(map[string]any{
				"user_id":  7,
				"username": body.Username,
				"role":     "admin",
				"exp":      time.Now().Add(time.Hour).Unix(),
			})
			_ = json.NewEncoder(w).Encode(map[string]string{"token": tok})
		})
		mux.HandleFunc("GET /users/7/score", func(w http.ResponseWriter, r *http.Request) {
			scoreCalls++
			_ = json.NewEncoder(w).Encode(map[string]any{"score": 31.5, "year": 2026})
		})
		mux.HandleFunc("POST /prodes/carrera/42/score", func(w http.ResponseWriter, r *http.Request) {
			recomputeCalls++
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "scores updated"})
		})
		backend := httptest.NewServer(mux)
		Reset(backend.Close)

		storePath := filepath.Join(t.TempDir(), "prode-store.json")
		sess := New(
			WithBaseURL(backend.URL),
			WithStorePath(storePath),
			WithSeasonYear(2026),
			WithHTTPTimeout(2*time.Second),
		)
		ctx := context.Background()
		So(sess.Start(ctx), ShouldBeNil)
		Reset(sess.Stop)

		Convey("Login stores the token and warms the score cache", func() {
			claims, err := sess.Login(ctx, "kian", "secret")
			So(err, ShouldBeNil)
			So(claims.UserID, ShouldEqual, 7)
			So(claims.Username, ShouldEqual, "kian")
			So(sess.Tokens().Token(), ShouldNotBeEmpty)

			snap := sess.Cache().Current()
			So(snap.Valid, ShouldBeTrue)
			So(snap.Score, ShouldEqual, 31.5)
			So(snap.Year, ShouldEqual, 2026)
		})

		Convey("Login with bad credentials fails and leaves no token", func() {
			_, err := sess.Login(ctx, "kian", "wrong")
			So(err, ShouldNotBeNil)
			So(sess.Tokens().Token(), ShouldBeEmpty)
		})

		Convey("A second session on the same store picks up the token", func() {
			_, err := sess.Login(ctx, "kian", "secret")
			So(err, ShouldBeNil)

			other := New(WithBaseURL(backend.URL), WithStorePath(storePath))
			So(other.Start(ctx), ShouldBeNil)
			defer other.Stop()
			So(other.Tokens().Token(), ShouldEqual, sess.Tokens().Token())
		})

		Convey("Logout drops the credential", func() {
			_, err := sess.Login(ctx, "kian", "secret")
			So(err, ShouldBeNil)
			So(sess.Logout(), ShouldBeNil)
			So(sess.Tokens().Token(), ShouldBeEmpty)
		})

		Convey("Recompute hits the server and refreshes the cached score", func() {
			_, err := sess.Login(ctx, "kian", "secret")
			So(err, ShouldBeNil)
			warmups := scoreCalls

			msg, err := sess.Recompute(ctx, prediction.KindRace, 42)
			So(err, ShouldBeNil)
			So(msg, ShouldEqual, "scores updated")
			So(recomputeCalls, ShouldEqual, 1)
			So(scoreCalls, ShouldBeGreaterThan, warmups)
		})

		Convey("Start is idempotent", func() {
			So(sess.Start(ctx), ShouldBeNil)
		})

		Convey("NewForm derives the form kind from the session type", func() {
			f, w := sess.NewForm(types.Session{
				ID:    9,
				Type:  types.SessionRace,
				Start: time.Now().Add(time.Hour),
			})
			So(f, ShouldNotBeNil)
			So(w, ShouldNotBeNil)
			So(f.Kind(), ShouldEqual, prediction.KindRace)
		})
	})
}

func TestSessionNotStarted(t *testing.T) {
	Convey("Operations before Start fail cleanly", t, func() {
		sess := New()
		_, err := sess.Login(context.Background(), "a", "b")
		So(err, ShouldEqual, ErrNotStarted)
		So(sess.Logout(), ShouldEqual, ErrNotStarted)
	})
}
