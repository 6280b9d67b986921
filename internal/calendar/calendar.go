// Package calendar decodes NetCDF time axes into calendar dates.
//
// Three encodings are supported: CF "<unit> since <epoch>" offsets in any of the
// CF calendars, "months since YYYY-MM-DD" offsets, and synthetic date series
// for files without a usable time axis.
package calendar

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.ngs.io/oraip-profiles/internal/domain"
)

// Date is a calendar date in an arbitrary CF calendar.
type Date struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second float64
}

// NewDate returns a midnight date.
func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02.0f", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// InYears reports whether the date's year is in [start, end].
func (d Date) InYears(start, end int) bool {
	return d.Year >= start && d.Year <= end
}

// Calendar names a CF calendar.
type Calendar string

const (
	Standard           Calendar = "standard"
	ProlepticGregorian Calendar = "proleptic_gregorian"
	NoLeap             Calendar = "noleap"
	AllLeap            Calendar = "all_leap"
	Day360             Calendar = "360_day"
	Julian             Calendar = "julian"
)

// ParseCalendar normalises a calendar attribute. An empty name selects the
// proleptic Gregorian calendar.
func ParseCalendar(name string) (Calendar, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return ProlepticGregorian, nil
	case "standard", "gregorian":
		return Standard, nil
	case "proleptic_gregorian":
		return ProlepticGregorian, nil
	case "noleap", "365_day":
		return NoLeap, nil
	case "all_leap", "366_day":
		return AllLeap, nil
	case "360_day":
		return Day360, nil
	case "julian":
		return Julian, nil
	}
	return "", &domain.TimeUnitsError{Calendar: name, Msg: "unsupported calendar"}
}

var (
	sinceRe       = regexp.MustCompile(`^\s*(\w+)\s+since\s+(.+?)\s*$`)
	epochRe       = regexp.MustCompile(`^(-?\d+)-(\d{1,2})-(\d{1,2})(?:[T\s]+(\d{1,2}):(\d{1,2})(?::(\d{1,2}(?:\.\d*)?))?)?`)
	monthsSinceRe = regexp.MustCompile(`month.*since\s+(\d+)-(\d+)-(\d+)`)
)

var unitSeconds = map[string]float64{
	"second": 1, "seconds": 1, "sec": 1, "secs": 1, "s": 1,
	"minute": 60, "minutes": 60, "min": 60, "mins": 60,
	"hour": 3600, "hours": 3600, "hr": 3600, "hrs": 3600, "h": 3600,
	"day": 86400, "days": 86400, "d": 86400,
	"week": 7 * 86400, "weeks": 7 * 86400,
}

// Units is a parsed "<unit> since <epoch>" string.
type Units struct {
	Seconds float64 // Length of one unit in seconds.
	Epoch   Date
}

// ParseUnits parses a CF time units string such as "days since 1950-01-01 00:00:00".
func ParseUnits(units string) (Units, error) {
	m := sinceRe.FindStringSubmatch(units)
	if m == nil {
		return Units{}, &domain.TimeUnitsError{Units: units, Msg: "expected '<unit> since <date>'"}
	}
	secs, ok := unitSeconds[strings.ToLower(m[1])]
	if !ok {
		return Units{}, &domain.TimeUnitsError{Units: units, Msg: fmt.Sprintf("unsupported unit %q", m[1])}
	}
	epoch, err := parseEpoch(m[2])
	if err != nil {
		return Units{}, &domain.TimeUnitsError{Units: units, Msg: err.Error()}
	}
	return Units{Seconds: secs, Epoch: epoch}, nil
}

func parseEpoch(s string) (Date, error) {
	m := epochRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Date{}, fmt.Errorf("bad reference date %q", s)
	}
	atoi := func(x string) int {
		if x == "" {
			return 0
		}
		n, _ := strconv.Atoi(x)
		return n
	}
	d := Date{Year: atoi(m[1]), Month: atoi(m[2]), Day: atoi(m[3]), Hour: atoi(m[4]), Minute: atoi(m[5])}
	if m[6] != "" {
		d.Second, _ = strconv.ParseFloat(m[6], 64)
	}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return Date{}, fmt.Errorf("bad reference date %q", s)
	}
	return d, nil
}

// Decode converts offsets in the given units and calendar into dates.
func Decode(units, calendarName string, offsets []float64) ([]Date, error) {
	cal, err := ParseCalendar(calendarName)
	if err != nil {
		return nil, &domain.TimeUnitsError{Units: units, Calendar: calendarName, Msg: "unsupported calendar"}
	}
	u, err := ParseUnits(units)
	if err != nil {
		return nil, err
	}
	out := make([]Date, len(offsets))
	for i, t := range offsets {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, &domain.TimeUnitsError{Units: units, Calendar: calendarName, Msg: fmt.Sprintf("non-finite offset at %d", i)}
		}
		out[i] = cal.add(u.Epoch, t*u.Seconds)
	}
	return out, nil
}

// DecodeMonthsSince decodes offsets given as whole months since an epoch:
// year = year0 + floor(t/12), month = month0 + (t mod 12). A month past
// December carries into the next year.
func DecodeMonthsSince(units string, offsets []float64) ([]Date, error) {
	m := monthsSinceRe.FindStringSubmatch(units)
	if m == nil {
		return nil, &domain.TimeUnitsError{Units: units, Msg: "expected 'months since YYYY-MM-DD'"}
	}
	year0, _ := strconv.Atoi(m[1])
	month0, _ := strconv.Atoi(m[2])
	day0, _ := strconv.Atoi(m[3])
	if month0 < 1 || month0 > 12 {
		return nil, &domain.TimeUnitsError{Units: units, Msg: "month out of range"}
	}

	out := make([]Date, len(offsets))
	for i, t := range offsets {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, &domain.TimeUnitsError{Units: units, Msg: fmt.Sprintf("non-finite offset at %d", i)}
		}
		n := int(math.Floor(t))
		years := floorDiv(n, 12)
		year := year0 + years
		month := month0 + (n - 12*years)
		if month > 12 {
			month -= 12
			year++
		}
		out[i] = NewDate(year, month, day0)
	}
	return out, nil
}

// IsMonthsSince reports whether units use the months-since form.
func IsMonthsSince(units string) bool {
	return monthsSinceRe.MatchString(units)
}

// Monthly returns one date per calendar month of year on the given day.
func Monthly(year, day int) []Date {
	out := make([]Date, 12)
	for m := 1; m <= 12; m++ {
		out[m-1] = NewDate(year, m, day)
	}
	return out
}

// Annual returns one date per year in [start, end] on the given month and day.
func Annual(start, end, month, day int) []Date {
	if end < start {
		return nil
	}
	out := make([]Date, 0, end-start+1)
	for y := start; y <= end; y++ {
		out = append(out, NewDate(y, month, day))
	}
	return out
}

// Repeat returns n copies of d, used for records that all share a file date.
func Repeat(d Date, n int) []Date {
	out := make([]Date, n)
	for i := range out {
		out[i] = d
	}
	return out
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// add returns epoch shifted by secs seconds in calendar c.
func (c Calendar) add(epoch Date, secs float64) Date {
	days := math.Floor(secs / 86400)
	rem := secs - days*86400

	switch c {
	case Standard, ProlepticGregorian, Julian:
		// Julian is approximated by the proleptic Gregorian calendar.
		t := time.Date(epoch.Year, time.Month(epoch.Month), epoch.Day, epoch.Hour, epoch.Minute, 0, 0, time.UTC)
		t = t.AddDate(0, 0, int(days))
		total := epoch.Second + rem
		t = t.Add(time.Duration(math.Round(total * float64(time.Second))))
		return Date{
			Year:   t.Year(),
			Month:  int(t.Month()),
			Day:    t.Day(),
			Hour:   t.Hour(),
			Minute: t.Minute(),
			Second: float64(t.Second()) + float64(t.Nanosecond())/1e9,
		}
	default:
		ord := c.ordinal(epoch) + int(days)
		sod := float64(epoch.Hour*3600+epoch.Minute*60) + epoch.Second + rem
		for sod >= 86400 {
			sod -= 86400
			ord++
		}
		d := c.fromOrdinal(ord)
		d.Hour = int(sod / 3600)
		d.Minute = int(math.Mod(sod, 3600) / 60)
		d.Second = math.Mod(sod, 60)
		return d
	}
}

func (c Calendar) monthLengths() [12]int {
	switch c {
	case Day360:
		return [12]int{30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30, 30}
	case AllLeap:
		return [12]int{31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	default:
		return [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	}
}

func (c Calendar) yearLength() int {
	n := 0
	for _, l := range c.monthLengths() {
		n += l
	}
	return n
}

// ordinal counts days from 0000-01-01 in a fixed-length-year calendar.
func (c Calendar) ordinal(d Date) int {
	ml := c.monthLengths()
	n := d.Year * c.yearLength()
	for m := 0; m < d.Month-1; m++ {
		n += ml[m]
	}
	return n + d.Day - 1
}

func (c Calendar) fromOrdinal(n int) Date {
	yl := c.yearLength()
	year := floorDiv(n, yl)
	doy := n - year*yl
	ml := c.monthLengths()
	month := 0
	for month < 11 && doy >= ml[month] {
		doy -= ml[month]
		month++
	}
	return NewDate(year, month+1, doy+1)
}
