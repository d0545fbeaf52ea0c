package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jask/bitacora/internal/bitacora"
	"github.com/jask/bitacora/internal/database/repository"
	"github.com/jask/bitacora/internal/logging"
)

// FetchState governs the search trigger and the loading indicator.
type FetchState int

const (
	Idle FetchState = iota
	Loading
	Success
	Failed
)

func (s FetchState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("FetchState(%d)", int(s))
	}
}

// Settled reports whether no cycle is in flight. Idle, Success and Failed
// all accept a new trigger.
func (s FetchState) Settled() bool { return s != Loading }

// ErrFetchInFlight is returned by Begin while a cycle is loading.
var ErrFetchInFlight = errors.New("fetch already in flight")

// Remote is the service the fetcher reads from. *bitacora.Client implements it.
type Remote interface {
	Movements(ctx context.Context, dateKey string) ([]bitacora.Movement, error)
}

// Journal records resolved cycles. *HistoryService implements it.
type Journal interface {
	Record(ctx context.Context, entry repository.FetchLog) error
}

// Snapshot is a consistent copy of the fetcher's observable state.
type Snapshot struct {
	State      FetchState
	Rows       []bitacora.MovementRecord
	DateKey    string // key of the last cycle, loading or resolved
	CycleID    string
	StatusCode int
	Err        error
}

// TriggerEnabled is false exactly while a cycle is loading.
func (s Snapshot) TriggerEnabled() bool { return s.State.Settled() }

// IndicatorVisible is true exactly while a cycle is loading.
func (s Snapshot) IndicatorVisible() bool { return s.State == Loading }

// Cycle is one in-flight fetch handed out by Begin.
type Cycle struct {
	ID        string
	DateKey   string
	StartedAt time.Time
}

// Result describes how a cycle resolved.
type Result struct {
	Cycle      Cycle
	State      FetchState
	Rows       int
	StatusCode int
	Err        error
	Elapsed    time.Duration
}

// Fetcher runs the fetch cycle for a single screen. One cycle at a time;
// rows and state change together under mu.
type Fetcher struct {
	Remote  Remote
	Journal Journal
	Log     logrus.FieldLogger
	Timeout time.Duration
	Now     func() time.Time

	mu         sync.Mutex
	state      FetchState
	rows       []bitacora.MovementRecord
	dateKey    string
	cycle      *Cycle
	claimed    string // id of the cycle being resolved
	statusCode int
	lastErr    error
}

// NewFetcher returns an Idle fetcher with an empty row list.
func NewFetcher(remote Remote, journal Journal, log logrus.FieldLogger, timeout time.Duration) *Fetcher {
	return &Fetcher{Remote: remote, Journal: journal, Log: log, Timeout: timeout}
}

// Snapshot returns the current state. Rows are copied.
func (f *Fetcher) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := Snapshot{
		State:      f.state,
		Rows:       append([]bitacora.MovementRecord(nil), f.rows...),
		DateKey:    f.dateKey,
		StatusCode: f.statusCode,
		Err:        f.lastErr,
	}
	if f.cycle != nil {
		snap.CycleID = f.cycle.ID
	}
	return snap
}

// State returns the current fetch state.
func (f *Fetcher) State() FetchState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Rows returns a copy of the current row list.
func (f *Fetcher) Rows() []bitacora.MovementRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bitacora.MovementRecord(nil), f.rows...)
}

// Begin moves to Loading for dateKey. It fails with ErrFetchInFlight while
// another cycle is loading and with *InvalidDateError for a malformed key.
// Rows are left as they are until the cycle resolves.
func (f *Fetcher) Begin(dateKey string) (Cycle, error) {
	if !ValidQueryKey(dateKey) {
		return Cycle{}, &InvalidDateError{Input: dateKey, Reason: "query key must be six digits (YYMMDD)"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Loading {
		return Cycle{}, ErrFetchInFlight
	}
	c := Cycle{ID: uuid.NewString(), DateKey: dateKey, StartedAt: f.now()}
	f.state = Loading
	f.cycle = &c
	f.dateKey = dateKey
	f.statusCode = 0
	f.lastErr = nil
	f.log().WithFields(logrus.Fields{"cycle": c.ID, "fecha": dateKey}).Debug("fetch started")
	return c, nil
}

// Run performs the request for c and resolves it. It must be called exactly
// once per cycle returned by Begin.
func (f *Fetcher) Run(ctx context.Context, c Cycle) Result {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	movements, err := f.Remote.Movements(ctx, c.DateKey)
	if err == nil {
		return f.resolve(ctx, c, bitacora.Records(movements), nil)
	}
	var statusErr *bitacora.RemoteStatusError
	var transportErr *bitacora.TransportError
	if !errors.As(err, &statusErr) && !errors.As(err, &transportErr) {
		err = &bitacora.TransportError{Op: "request", Err: err}
	}
	return f.resolve(ctx, c, nil, err)
}

// Fetch runs a whole cycle synchronously.
func (f *Fetcher) Fetch(ctx context.Context, dateKey string) (Result, error) {
	c, err := f.Begin(dateKey)
	if err != nil {
		return Result{}, err
	}
	res := f.Run(ctx, c)
	return res, res.Err
}

func (f *Fetcher) resolve(ctx context.Context, c Cycle, rows []bitacora.MovementRecord, fetchErr error) Result {
	finished := f.now()
	res := Result{Cycle: c, Err: fetchErr, Elapsed: finished.Sub(c.StartedAt)}

	var statusErr *bitacora.RemoteStatusError
	switch {
	case fetchErr == nil:
		res.State = Success
		res.StatusCode = 200
		res.Rows = len(rows)
	case errors.As(fetchErr, &statusErr):
		res.State = Failed
		res.StatusCode = statusErr.StatusCode
	default:
		res.State = Failed
	}

	f.mu.Lock()
	if f.state != Loading || f.cycle == nil || f.cycle.ID != c.ID || f.claimed == c.ID {
		f.mu.Unlock()
		f.log().WithField("cycle", c.ID).Warn("resolve for a cycle that is not current; ignored")
		return res
	}
	f.claimed = c.ID
	f.mu.Unlock()

	entry := f.log().WithFields(logrus.Fields{
		"cycle":   c.ID,
		"fecha":   c.DateKey,
		"status":  res.StatusCode,
		"rows":    res.Rows,
		"elapsed": res.Elapsed.String(),
	})
	if fetchErr != nil {
		entry.WithError(fetchErr).Error("fetch failed")
	} else {
		entry.Info("fetch complete")
	}

	// The journal is written while still Loading: once the state settles,
	// Run returns without further work.
	f.record(ctx, res, finished)

	f.mu.Lock()
	if res.State == Success {
		f.rows = rows
	}
	f.state = res.State
	f.statusCode = res.StatusCode
	f.lastErr = fetchErr
	f.mu.Unlock()
	return res
}

func (f *Fetcher) record(ctx context.Context, res Result, finished time.Time) {
	if f.Journal == nil {
		return
	}
	outcome := repository.OutcomeSuccess
	var msg *string
	if res.Err != nil {
		outcome = repository.OutcomeFailed
		s := res.Err.Error()
		msg = &s
	}
	// the cycle context may already be past its deadline
	ctx = context.WithoutCancel(ctx)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	err := f.Journal.Record(ctx, repository.FetchLog{
		ID:         res.Cycle.ID,
		DateKey:    res.Cycle.DateKey,
		Outcome:    outcome,
		StatusCode: res.StatusCode,
		RowCount:   res.Rows,
		Error:      msg,
		StartedAt:  res.Cycle.StartedAt,
		FinishedAt: finished,
	})
	if err != nil {
		f.log().WithError(err).WithField("cycle", res.Cycle.ID).Warn("journal write failed")
	}
}

func (f *Fetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Fetcher) log() logrus.FieldLogger {
	if f.Log != nil {
		return f.Log
	}
	return discard
}

var discard logrus.FieldLogger = logging.Discard()
