package utils

import (
	"strings"
	"time"

	"github.com/scmhub/calendar"
)

// DefaultMIC is used for symbols without a known exchange suffix.
const DefaultMIC = "xnys"

// micBySuffix maps Yahoo symbol suffixes to ISO 10383 market identifiers.
var micBySuffix = map[string]string{
	"L":  "xlon",
	"PA": "xpar",
	"DE": "xfra",
	"AS": "xams",
	"BR": "xbru",
	"MI": "xmil",
	"MC": "xmad",
	"ST": "xsto",
	"CO": "xcse",
	"HE": "xhel",
	"VI": "xwbo",
	"SW": "xswx",
	"TO": "xtse",
	"V":  "xtsx",
	"T":  "xtks",
	"HK": "xhkg",
	"AX": "xasx",
	"KS": "xkrx",
	"TW": "xtai",
	"SS": "xshg",
	"SZ": "xshe",
}

// TradingCalendar answers open/closed questions for one exchange.
type TradingCalendar struct {
	MIC      string
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

// MICForSymbol returns the exchange identifier implied by the symbol suffix.
func MICForSymbol(symbol string) string {
	i := strings.LastIndex(symbol, ".")
	if i < 0 || i == len(symbol)-1 {
		return DefaultMIC
	}
	if mic, ok := micBySuffix[strings.ToUpper(symbol[i+1:])]; ok {
		return mic
	}
	return DefaultMIC
}

// -----------------------------------------------------------------------------

// LoadCalendar returns the calendar for mic. When the library has none, a
// Mon-Fri 09:30-16:00 New York fallback is used.
func LoadCalendar(mic string) *TradingCalendar {
	if cal := calendar.GetCalendar(mic); cal != nil {
		return &TradingCalendar{MIC: mic, Calendar: cal, Timezone: cal.Loc}
	}

	nyLoc, err := time.LoadLocation("America/New_York")
	if err != nil {
		nyLoc = time.UTC
	}
	return &TradingCalendar{MIC: mic, Fallback: true, Timezone: nyLoc}
}

// -----------------------------------------------------------------------------

func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}

	if tc.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpen reports whether the exchange is in its regular session at t.
func (tc *TradingCalendar) IsOpen(t time.Time) bool {
	if tc.Timezone != nil {
		t = t.In(tc.Timezone)
	}

	if tc.Fallback {
		if !tc.IsTradingDay(t) {
			return false
		}
		minutes := t.Hour()*60 + t.Minute()
		return minutes >= 9*60+30 && minutes < 16*60
	}

	return tc.Calendar.IsOpen(t)
}
