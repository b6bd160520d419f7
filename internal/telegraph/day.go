package telegraph

import (
	"fmt"
	"time"
)

// Beijing is the reference timezone. All bucketing and settlement
// decisions are made against this fixed offset, never the host zone.
var Beijing = time.FixedZone("CST", 8*60*60)

const (
	// BoundaryOffset shifts the business-day boundary away from midnight:
	// a day runs from 05:30 to 05:30 of the next calendar day.
	BoundaryOffset = 5*time.Hour + 30*time.Minute

	// SettleWindow is how long after the boundary the just-closed day is
	// eligible for delivery.
	SettleWindow = 8 * time.Minute
)

// Day is a business day: a calendar date under the Beijing timezone with
// the boundary shift already applied. It is a structured date internally;
// the YYYY-MM-DD string form appears only at the storage boundary.
type Day struct {
	Year  int
	Month time.Month
	Date  int
}

// DayOf maps an instant to the business day it belongs to. Two instants
// share a Day iff both fall in the same [boundary, next boundary) window.
func DayOf(t time.Time) Day {
	adjusted := t.In(Beijing).Add(-BoundaryOffset)
	y, m, d := adjusted.Date()
	return Day{Year: y, Month: m, Date: d}
}

// Prev returns the preceding business day by calendar arithmetic on the
// date component. Month and year boundaries are handled by the time
// package, not by re-deriving from a shifted timestamp.
func (d Day) Prev() Day {
	t := time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	y, m, dd := t.Date()
	return Day{Year: y, Month: m, Date: dd}
}

// Boundary returns the instant this business day opened: the boundary
// time of day on the Day's calendar date, in Beijing.
func (d Day) Boundary() time.Time {
	return time.Date(d.Year, d.Month, d.Date, 0, 0, 0, 0, Beijing).Add(BoundaryOffset)
}

// String renders the YYYY-MM-DD form used in file names and headers.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Date)
}

// BoundaryClock is the boundary time of day rendered as HH:MM ("05:30").
func BoundaryClock() string {
	return time.Time{}.Add(BoundaryOffset).Format("15:04")
}

// InSettleWindow reports whether t falls inside today's settlement
// window, [boundary, boundary+SettleWindow) of t's calendar date in
// Beijing.
func InSettleWindow(t time.Time) bool {
	local := t.In(Beijing)
	y, m, d := local.Date()
	open := time.Date(y, m, d, 0, 0, 0, 0, Beijing).Add(BoundaryOffset)
	return !local.Before(open) && local.Before(open.Add(SettleWindow))
}
