// Package onebeat computes the inventory snapshot and transaction ledger
// exchanged with the OneBeat demand-planning service.
package onebeat

import (
	"fmt"
	"time"
)

// Direction tells OneBeat whether a movement leaves or enters the network.
type Direction string

const (
	// DirectionIn marks goods entering an internal location.
	DirectionIn Direction = "IN"
	// DirectionOut marks goods leaving an internal location.
	DirectionOut Direction = "OUT"
)

// Buffer is the persisted target stock for a product at a reportable location.
type Buffer struct {
	ID                int64
	CompanyID         int64
	ProductID         int64
	LocationID        int64
	BufferSize        float64
	ReplenishmentTime int
}

// BufferUpdate carries a new buffer size published by the planner.
type BufferUpdate struct {
	SKU        string
	Location   string
	BufferSize float64
}

// Window is a half-open time range [Start, Stop).
type Window struct {
	Start time.Time
	Stop  time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.Stop)
}

// Validate rejects empty or inverted windows.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.Stop.IsZero() {
		return fmt.Errorf("%w: window start and stop required", ErrInvalidWindow)
	}
	if !w.Start.Before(w.Stop) {
		return fmt.Errorf("%w: start %s not before stop %s", ErrInvalidWindow, w.Start.Format(time.RFC3339), w.Stop.Format(time.RFC3339))
	}
	return nil
}

// Day is a local calendar date.
type Day struct {
	Year  int
	Month time.Month
	Dom   int
}

// DayOf truncates t, expressed in loc, to its calendar day.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Dom: d}
}

// String formats the day as 2006-01-02.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Dom)
}

// Before orders days chronologically.
func (d Day) Before(o Day) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Dom < o.Dom
}

// Start returns midnight of the day in loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Dom, 0, 0, 0, 0, loc)
}

// LoadTimezone resolves an IANA zone name, defaulting to UTC when empty.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ConfigurationError{Field: "timezone", Reason: fmt.Sprintf("unknown zone %q", name)}
	}
	return loc, nil
}
