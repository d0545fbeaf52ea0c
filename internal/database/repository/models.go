package repository

import "time"

// Fetch outcomes stored in fetch_log.outcome.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// FetchLog represents one resolved fetch cycle.
type FetchLog struct {
	ID         string
	DateKey    string
	Outcome    string
	StatusCode int
	RowCount   int
	Error      *string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed is the wall time the cycle spent in flight.
func (l FetchLog) Elapsed() time.Duration {
	return l.FinishedAt.Sub(l.StartedAt)
}
