package calendar

import (
	"errors"
	"testing"

	"go.ngs.io/oraip-profiles/internal/domain"
)

func TestDecodeStandard(t *testing.T) {
	dates, err := Decode("days since 1950-01-01 00:00:00", "", []float64{0, 31, 365.5})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []Date{
		{Year: 1950, Month: 1, Day: 1},
		{Year: 1950, Month: 2, Day: 1},
		{Year: 1951, Month: 1, Day: 1, Hour: 12},
	}
	for i, w := range want {
		got := dates[i]
		if got.Year != w.Year || got.Month != w.Month || got.Day != w.Day || got.Hour != w.Hour {
			t.Errorf("offset %d: expected %v, got %v", i, w, got)
		}
	}
}

func TestDecodeHoursGregorian(t *testing.T) {
	dates, err := Decode("hours since 1993-01-01", "gregorian", []float64{24 * 59})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if d := dates[0]; d.Month != 3 || d.Day != 1 || d.Year != 1993 {
		t.Errorf("expected 1993-03-01, got %v", d)
	}
}

func TestDecodeNoLeapAnd360Day(t *testing.T) {
	// 2000 is a leap year in Gregorian terms but not in noleap.
	dates, err := Decode("days since 2000-02-28", "365_day", []float64{1})
	if err != nil {
		t.Fatalf("Decode noleap: %v", err)
	}
	if d := dates[0]; d.Month != 3 || d.Day != 1 {
		t.Errorf("noleap: expected 2000-03-01, got %v", d)
	}

	dates, err = Decode("days since 1990-01-01", "360_day", []float64{360 * 3, 45})
	if err != nil {
		t.Fatalf("Decode 360_day: %v", err)
	}
	if d := dates[0]; d.Year != 1993 || d.Month != 1 || d.Day != 1 {
		t.Errorf("360_day: expected 1993-01-01, got %v", d)
	}
	if d := dates[1]; d.Month != 2 || d.Day != 16 {
		t.Errorf("360_day: expected 1990-02-16, got %v", d)
	}

	dates, err = Decode("days since 2001-02-28", "all_leap", []float64{1})
	if err != nil {
		t.Fatalf("Decode all_leap: %v", err)
	}
	if d := dates[0]; d.Month != 2 || d.Day != 29 {
		t.Errorf("all_leap: expected 2001-02-29, got %v", d)
	}
}

func TestDecodeRejectsBadUnits(t *testing.T) {
	for _, units := range []string{"fortnights since 1990-01-01", "days after 1990-01-01", "days since yesterday"} {
		_, err := Decode(units, "", []float64{0})
		var tuErr *domain.TimeUnitsError
		if !errors.As(err, &tuErr) {
			t.Errorf("%q: expected TimeUnitsError, got %v", units, err)
			continue
		}
		if tuErr.Units != units {
			t.Errorf("%q: error should carry the offending string, got %q", units, tuErr.Units)
		}
	}

	_, err := Decode("days since 1990-01-01", "martian", []float64{0})
	var tuErr *domain.TimeUnitsError
	if !errors.As(err, &tuErr) {
		t.Errorf("expected TimeUnitsError for unknown calendar, got %v", err)
	}
}

func TestDecodeMonthsSince(t *testing.T) {
	dates, err := DecodeMonthsSince("months since 1980-01-15", []float64{0, 11, 12, 25.5})
	if err != nil {
		t.Fatalf("DecodeMonthsSince: %v", err)
	}
	want := []Date{
		NewDate(1980, 1, 15),
		NewDate(1980, 12, 15),
		NewDate(1981, 1, 15),
		NewDate(1982, 2, 15),
	}
	for i, w := range want {
		if dates[i] != w {
			t.Errorf("offset %d: expected %v, got %v", i, w, dates[i])
		}
	}
}

func TestDecodeMonthsSinceCarriesOverflow(t *testing.T) {
	dates, err := DecodeMonthsSince("months since 1993-07-01 00:00:00", []float64{6})
	if err != nil {
		t.Fatalf("DecodeMonthsSince: %v", err)
	}
	if dates[0] != NewDate(1994, 1, 1) {
		t.Errorf("expected 1994-01-01, got %v", dates[0])
	}
}

func TestDecodeMonthsSinceBadUnits(t *testing.T) {
	_, err := DecodeMonthsSince("days since 1993-07-01", []float64{0})
	var tuErr *domain.TimeUnitsError
	if !errors.As(err, &tuErr) {
		t.Fatalf("expected TimeUnitsError, got %v", err)
	}
	if !IsMonthsSince("month(s) since 1958-01-01") {
		t.Error("expected month(s) since form to be recognised")
	}
}

func TestSyntheticSeries(t *testing.T) {
	m := Monthly(1995, 15)
	if len(m) != 12 || m[0] != NewDate(1995, 1, 15) || m[11] != NewDate(1995, 12, 15) {
		t.Errorf("unexpected monthly series: %v", m)
	}
	a := Annual(1948, 2012, 1, 1)
	if len(a) != 65 || a[64].Year != 2012 {
		t.Errorf("unexpected annual series length %d", len(a))
	}
	if !a[10].InYears(1958, 1958) || a[10].InYears(1959, 2000) {
		t.Errorf("InYears mismatch for %v", a[10])
	}
}
