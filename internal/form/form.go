// Package form implements the per-session prediction form state machine.
//
// Lifecycle: LoadingRoster -> Ready -> (Editing <-> Submitting) -> Submitted.
// Orthogonally, every state except Submitted can be overridden into a locked
// read-only mode by the deadline watchdog.
package form

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/prode/internal/domain/prediction"
	"github.com/okian/prode/internal/domain/types"
	"github.com/okian/prode/pkg/logger"
	"github.com/okian/prode/pkg/metrics"
)

// State is the form's lifecycle position.
type State int

// Form states.
const (
	StateLoadingRoster State = iota
	StateReady
	StateEditing
	StateSubmitting
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateLoadingRoster:
		return "loading-roster"
	case StateReady:
		return "ready"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// API is the slice of the REST client the form needs.
type API interface {
	FetchDrivers(ctx context.Context) ([]types.Driver, error)
	FetchExisting(ctx context.Context, userID, sessionID int) (*prediction.Prediction, error)
	SubmitSession(ctx context.Context, userID int, picks prediction.SessionPicks) (*prediction.Prediction, error)
	SubmitRace(ctx context.Context, userID int, picks prediction.RacePicks) (*prediction.Prediction, error)
}

// Form is the per-session prediction form.
type Form struct {
	mu sync.Mutex

	api     API
	userID  int
	session types.Session
	kind    prediction.Kind

	roster []types.Driver
	picks  []int // indexed by position-1; 0 means unset

	vsc bool
	sc  bool
	dnf int

	state  State
	locked bool
	score  *float64

	log logger.Logger
}

// Option applies a configuration option to the Form.
type Option func(*Form)

// WithLogger sets a custom logger for the form.
func WithLogger(l logger.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.log = l
		}
	}
}

// New creates a Form for one (user, session) pair. The prediction kind
// follows the session type: races use the five-pick form with extras, every
// other session type uses the three-pick form.
func New(api API, userID int, session types.Session, opts ...Option) *Form {
	kind := prediction.KindSession
	if session.Type.IsRace() {
		kind = prediction.KindRace
	}
	f := &Form{
		api:     api,
		userID:  userID,
		session: session,
		kind:    kind,
		picks:   make([]int, kind.PickCount()),
		state:   StateLoadingRoster,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Load fetches the driver roster and any existing prediction concurrently,
// then seeds the form. Seeding only runs once both results are in, so it
// always sees a fully loaded roster; existing values win over defaults.
func (f *Form) Load(ctx context.Context) error {
	type rosterResult struct {
		drivers []types.Driver
		err     error
	}
	type existingResult struct {
		pred *prediction.Prediction
		err  error
	}

	rosterCh := make(chan rosterResult, 1)
	existingCh := make(chan existingResult, 1)

	go func() {
		drivers, err := f.api.FetchDrivers(ctx)
		rosterCh <- rosterResult{drivers: drivers, err: err}
	}()
	go func() {
		pred, err := f.api.FetchExisting(ctx, f.userID, f.session.ID)
		existingCh <- existingResult{pred: pred, err: err}
	}()

	roster := <-rosterCh
	existing := <-existingCh

	if roster.err != nil {
		return fmt.Errorf("%w: %w", ErrLoadForm, roster.err)
	}
	if existing.err != nil {
		return fmt.Errorf("%w: %w", ErrLoadForm, existing.err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.roster = roster.drivers
	if existing.pred != nil {
		f.seedLocked(existing.pred)
	}
	if f.state == StateLoadingRoster {
		f.state = StateReady
	}
	f.log.Debug(ctx, "form loaded",
		logger.Int("session", f.session.ID),
		logger.Int("roster", len(f.roster)),
		logger.Bool("seeded", existing.pred != nil),
	)
	return nil
}

// seedLocked copies an existing prediction's values over the defaults.
// Callers hold f.mu.
func (f *Form) seedLocked(p *prediction.Prediction) {
	picks := p.Picks()
	for i := 0; i < len(f.picks) && i < len(picks); i++ {
		f.picks[i] = picks[i]
	}
	if f.kind == prediction.KindRace && p.Race != nil {
		f.vsc = p.Race.VirtualSafetyCar
		f.sc = p.Race.SafetyCar
		f.dnf = p.Race.DNFCount
	}
	f.score = p.Score
}

// Kind returns the form's prediction kind.
func (f *Form) Kind() prediction.Kind { return f.kind }

// State returns the current lifecycle state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Locked reports whether the deadline watchdog has locked the form.
func (f *Form) Locked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locked
}

// Lock flips the form into read-only mode. It is idempotent and has no
// effect on an already submitted form. An in-flight submit is not canceled;
// the server remains the deadline authority.
func (f *Form) Lock() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitted {
		return
	}
	f.locked = true
}

// Picks returns a copy of the current selections, indexed by position-1.
func (f *Form) Picks() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.picks))
	copy(out, f.picks)
	return out
}

// Score returns the seeded server-computed score, nil until results are
// finalized.
func (f *Form) Score() *float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.score
}

// SetPick records driverID at 1-based position pos; zero clears the
// position. It never touches other positions. A driver already selected
// elsewhere is rejected.
func (f *Form) SetPick(pos, driverID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pos < 1 || pos > len(f.picks) {
		return fmt.Errorf("%w: position %d of %d", ErrBadPosition, pos, len(f.picks))
	}
	if f.locked || f.state == StateSubmitting || f.state == StateSubmitted {
		return ErrReadOnly
	}
	if driverID != 0 {
		for i, id := range f.picks {
			if id == driverID && i != pos-1 {
				return fmt.Errorf("%w: driver %d already at position %d", prediction.ErrDuplicatePick, driverID, i+1)
			}
		}
	}
	f.picks[pos-1] = driverID
	if f.state == StateReady {
		f.state = StateEditing
	}
	return nil
}

// Available returns the drivers selectable at 1-based position pos: the full
// roster minus whatever is selected in every other position. It is
// recomputed on every call, so clearing a position frees its driver
// immediately.
func (f *Form) Available(pos int) []types.Driver {
	f.mu.Lock()
	defer f.mu.Unlock()
	taken := make(map[int]bool, len(f.picks))
	for i, id := range f.picks {
		if id != 0 && i != pos-1 {
			taken[id] = true
		}
	}
	out := make([]types.Driver, 0, len(f.roster))
	for _, d := range f.roster {
		if !taken[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// SetVirtualSafetyCar sets the VSC extra on a race form.
func (f *Form) SetVirtualSafetyCar(v bool) error { return f.setExtra(func() { f.vsc = v }) }

// SetSafetyCar sets the safety-car extra on a race form.
func (f *Form) SetSafetyCar(v bool) error { return f.setExtra(func() { f.sc = v }) }

// SetDNFCount sets the predicted DNF count on a race form.
func (f *Form) SetDNFCount(n int) error { return f.setExtra(func() { f.dnf = n }) }

func (f *Form) setExtra(apply func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kind != prediction.KindRace {
		return ErrNotRaceForm
	}
	if f.locked || f.state == StateSubmitting || f.state == StateSubmitted {
		return ErrReadOnly
	}
	apply()
	if f.state == StateReady {
		f.state = StateEditing
	}
	return nil
}

// Complete reports whether every required pick holds a driver and, on race
// forms, the DNF count is non-negative. The booleans default to false and
// never block completeness.
func (f *Form) Complete() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completeLocked()
}

func (f *Form) completeLocked() bool {
	for _, id := range f.picks {
		if id == 0 {
			return false
		}
	}
	if f.kind == prediction.KindRace && f.dnf < 0 {
		return false
	}
	return true
}

// Submit posts the prediction. It is a silent no-op, without any network
// call, unless the form is complete and not locked. On success onSuccess
// runs and the form stays put so the caller decides what happens next; on
// failure onError runs and the form returns to editing for a retry.
func (f *Form) Submit(ctx context.Context, onSuccess func(*prediction.Prediction), onError func(error)) {
	f.mu.Lock()
	if f.locked || !f.completeLocked() || f.state == StateSubmitting || f.state == StateSubmitted {
		f.mu.Unlock()
		metrics.RecordFormSubmit(string(f.kind), "noop")
		return
	}
	f.state = StateSubmitting
	userID := f.userID
	payload := f.payloadLocked()
	f.mu.Unlock()

	var (
		pred *prediction.Prediction
		err  error
	)
	switch p := payload.(type) {
	case prediction.SessionPicks:
		pred, err = f.api.SubmitSession(ctx, userID, p)
	case prediction.RacePicks:
		pred, err = f.api.SubmitRace(ctx, userID, p)
	}

	f.mu.Lock()
	if err != nil {
		f.state = StateEditing
		f.mu.Unlock()
		metrics.RecordFormSubmit(string(f.kind), "failure")
		f.log.Warn(ctx, "prediction submit failed",
			logger.Int("session", f.session.ID),
			logger.Error(err),
		)
		if onError != nil {
			onError(err)
		}
		return
	}
	f.state = StateSubmitted
	f.score = pred.Score
	f.mu.Unlock()
	metrics.RecordFormSubmit(string(f.kind), "success")
	if onSuccess != nil {
		onSuccess(pred)
	}
}

// payloadLocked snapshots the current selections as the submit payload.
// Callers hold f.mu.
func (f *Form) payloadLocked() any {
	if f.kind == prediction.KindRace {
		return prediction.RacePicks{
			SessionID:        f.session.ID,
			P1:               f.picks[0],
			P2:               f.picks[1],
			P3:               f.picks[2],
			P4:               f.picks[3],
			P5:               f.picks[4],
			VirtualSafetyCar: f.vsc,
			SafetyCar:        f.sc,
			DNFCount:         f.dnf,
		}
	}
	return prediction.SessionPicks{
		SessionID: f.session.ID,
		P1:        f.picks[0],
		P2:        f.picks[1],
		P3:        f.picks[2],
	}
}
