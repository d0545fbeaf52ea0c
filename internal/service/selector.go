package service

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// DisplayLayout is the human date format shown in the date field.
	DisplayLayout = "02-01-2006"
	// QueryKeyLayout is the YYMMDD form the remote service filters on.
	QueryKeyLayout = "060102"
)

// inputLayouts are tried in order by Parse.
var inputLayouts = []string{
	DisplayLayout,
	"02/01/2006",
	"2006-01-02",
	QueryKeyLayout,
}

// InvalidDateError reports a date the selector refused. The previous
// selection is kept.
type InvalidDateError struct {
	Input  string
	Reason string
}

func (e *InvalidDateError) Error() string {
	if e.Input == "" {
		return "invalid date: " + e.Reason
	}
	return fmt.Sprintf("invalid date %q: %s", e.Input, e.Reason)
}

// SelectedDate is a calendar day in the selector's timezone. Both string
// forms are computed from the one stored day.
type SelectedDate struct {
	day time.Time // midnight in loc
}

// Date returns the calendar day at midnight in the fixed timezone.
func (d SelectedDate) Date() time.Time { return d.day }

// DisplayForm returns DD-MM-YYYY.
func (d SelectedDate) DisplayForm() string { return d.day.Format(DisplayLayout) }

// QueryKey returns YYMMDD.
func (d SelectedDate) QueryKey() string { return d.day.Format(QueryKeyLayout) }

func (d SelectedDate) String() string { return d.DisplayForm() }

// DateSelector holds the chosen day. It is safe for concurrent use.
type DateSelector struct {
	loc   *time.Location
	clock func() time.Time

	mu      sync.RWMutex
	current SelectedDate
}

// NewDateSelector starts on today as observed in timezone. clock may be nil.
func NewDateSelector(timezone string, clock func() time.Time) (*DateSelector, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	if clock == nil {
		clock = time.Now
	}
	s := &DateSelector{loc: loc, clock: clock}
	s.current = s.dayOf(clock())
	return s, nil
}

// Location returns the fixed timezone.
func (s *DateSelector) Location() *time.Location { return s.loc }

// Current returns the selected day.
func (s *DateSelector) Current() SelectedDate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Select makes the calendar day of t, read in the fixed timezone, current.
func (s *DateSelector) Select(t time.Time) (SelectedDate, error) {
	if t.IsZero() {
		return s.Current(), &InvalidDateError{Reason: "zero time"}
	}
	return s.set(s.dayOf(t)), nil
}

// SelectYMD selects year/month/day, rejecting days that do not exist.
func (s *DateSelector) SelectYMD(year int, month time.Month, day int) (SelectedDate, error) {
	d, err := s.ymd(year, month, day)
	if err != nil {
		return s.Current(), err
	}
	return s.set(d), nil
}

// SelectString parses input with Parse and selects it.
func (s *DateSelector) SelectString(input string) (SelectedDate, error) {
	d, err := s.Parse(input)
	if err != nil {
		return s.Current(), err
	}
	return s.set(d), nil
}

// Step moves the selection by days (negative goes back).
func (s *DateSelector) Step(days int) SelectedDate {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = SelectedDate{day: s.current.day.AddDate(0, 0, days)}
	return s.current
}

// Today selects the current day in the fixed timezone.
func (s *DateSelector) Today() SelectedDate {
	return s.set(s.dayOf(s.clock()))
}

// Parse reads DD-MM-YYYY, DD/MM/YYYY, YYYY-MM-DD or YYMMDD without changing the selection.
func (s *DateSelector) Parse(input string) (SelectedDate, error) {
	in := strings.TrimSpace(input)
	if in == "" {
		return SelectedDate{}, &InvalidDateError{Input: input, Reason: "empty"}
	}
	for _, layout := range inputLayouts {
		if len(in) != len(layout) {
			continue
		}
		t, err := time.ParseInLocation(layout, in, s.loc)
		if err != nil {
			continue
		}
		return SelectedDate{day: t}, nil
	}
	return SelectedDate{}, &InvalidDateError{Input: input, Reason: "expected DD-MM-YYYY, DD/MM/YYYY, YYYY-MM-DD or YYMMDD"}
}

func (s *DateSelector) set(d SelectedDate) SelectedDate {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = d
	return d
}

func (s *DateSelector) dayOf(t time.Time) SelectedDate {
	t = t.In(s.loc)
	return SelectedDate{day: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)}
}

func (s *DateSelector) ymd(year int, month time.Month, day int) (SelectedDate, error) {
	t := time.Date(year, month, day, 0, 0, 0, 0, s.loc)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return SelectedDate{}, &InvalidDateError{
			Input:  fmt.Sprintf("%04d-%02d-%02d", year, int(month), day),
			Reason: "no such day",
		}
	}
	return SelectedDate{day: t}, nil
}

// ValidQueryKey reports whether key is six ASCII digits.
func ValidQueryKey(key string) bool {
	if len(key) != 6 {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	return true
}
