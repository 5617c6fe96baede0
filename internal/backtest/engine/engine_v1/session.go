package engine

import (
	"maps"
	"time"
	_ "time/tzdata"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

const dateKeyLayout = "2006-01-02"

// Session names used for per-session statistics.
const (
	SessionAsia    = "asia"
	SessionEurope  = "europe"
	SessionNewYork = "new_york"
)

// parseClock converts "HH:MM" into minutes after midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeInvalidSessionClock, err, "invalid clock %q, expected HH:MM", value)
	}

	return t.Hour()*60 + t.Minute(), nil
}

func optionalClock(value string) (optional.Option[int], error) {
	if value == "" {
		return optional.None[int](), nil
	}

	minute, err := parseClock(value)
	if err != nil {
		return nil, err
	}

	return optional.Some(minute), nil
}

// SessionCalendar answers clock questions about a bar timestamp in the
// exchange timezone: is it the force-close bar, is it an early close date,
// are new entries halted.
type SessionCalendar struct {
	location       *time.Location
	forceClose     optional.Option[int]
	haltStart      optional.Option[int]
	haltEnd        optional.Option[int]
	earlyCloseLead int
	// earlyCloses maps a YYYY-MM-DD date to its close in minutes after midnight.
	earlyCloses map[string]int
}

// NewSessionCalendar builds the calendar from configuration.
func NewSessionCalendar(cfg SessionConfig) (*SessionCalendar, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "unknown session timezone %q", cfg.Timezone)
	}

	calendar := &SessionCalendar{
		location:       location,
		earlyCloseLead: cfg.EarlyCloseHaltLeadMinutes,
		earlyCloses:    make(map[string]int, len(cfg.EarlyCloseDates)),
	}

	if calendar.forceClose, err = optionalClock(cfg.ForceCloseTime); err != nil {
		return nil, err
	}

	if calendar.haltStart, err = optionalClock(cfg.HaltStart); err != nil {
		return nil, err
	}

	if calendar.haltEnd, err = optionalClock(cfg.HaltEnd); err != nil {
		return nil, err
	}

	if len(cfg.EarlyCloseDates) > 0 {
		earlyClose, err := parseClock(cfg.EarlyCloseTime)
		if err != nil {
			return nil, err
		}

		for _, date := range cfg.EarlyCloseDates {
			if _, err := time.Parse(dateKeyLayout, date); err != nil {
				return nil, errors.Wrapf(errors.ErrCodeInvalidSessionClock, err, "invalid early close date %q", date)
			}

			calendar.earlyCloses[date] = earlyClose
		}
	}

	return calendar, nil
}

func (s *SessionCalendar) clock(t time.Time) (string, int) {
	local := t.In(s.location)

	return local.Format(dateKeyLayout), local.Hour()*60 + local.Minute()
}

// WithDetectedEarlyCloses returns a copy of the calendar that also treats
// every date whose last bar is at or before cutoff as an early close at that
// bar's clock. Configured dates win over detected ones. The final date in bars
// is skipped because the data may simply end there.
func (s *SessionCalendar) WithDetectedEarlyCloses(bars []types.Bar, cutoff int) *SessionCalendar {
	detected := DetectEarlyCloses(bars, s.location, cutoff)

	clone := *s
	clone.earlyCloses = make(map[string]int, len(s.earlyCloses)+len(detected))
	maps.Copy(clone.earlyCloses, detected)
	maps.Copy(clone.earlyCloses, s.earlyCloses)

	return &clone
}

// DetectEarlyCloses scans bars backwards and returns the dates whose last bar
// falls at or before cutoff, mapped to that last bar's clock.
func DetectEarlyCloses(bars []types.Bar, location *time.Location, cutoff int) map[string]int {
	detected := make(map[string]int)
	if len(bars) == 0 {
		return detected
	}

	finalDate := bars[len(bars)-1].Time.In(location).Format(dateKeyLayout)
	seen := map[string]struct{}{finalDate: {}}

	for i := len(bars) - 1; i >= 0; i-- {
		local := bars[i].Time.In(location)
		date := local.Format(dateKeyLayout)

		if _, ok := seen[date]; ok {
			continue
		}

		seen[date] = struct{}{}

		minute := local.Hour()*60 + local.Minute()
		if minute <= cutoff {
			detected[date] = minute
		}
	}

	return detected
}

// EarlyClose returns the close clock when t falls on an early close date.
func (s *SessionCalendar) EarlyClose(t time.Time) (int, bool) {
	date, _ := s.clock(t)
	closeAt, ok := s.earlyCloses[date]

	return closeAt, ok
}

// ForceCloseReason reports whether a position open at t must be flattened and
// with which reason. Early close dates use EARLY_CLOSE from the close onwards;
// other dates use FORCE_CLOSE_EOD on the bar whose clock equals the configured time.
func (s *SessionCalendar) ForceCloseReason(t time.Time) (string, bool) {
	date, minute := s.clock(t)

	if closeAt, ok := s.earlyCloses[date]; ok {
		if minute >= closeAt {
			return types.ReasonEarlyClose, true
		}

		return "", false
	}

	if s.forceClose.IsSome() && minute == s.forceClose.Unwrap() {
		return types.ReasonForceCloseEOD, true
	}

	return "", false
}

// IsHalted reports whether new exposure may not be opened at t. Reducing
// fills are never halted.
func (s *SessionCalendar) IsHalted(t time.Time) bool {
	date, minute := s.clock(t)

	if closeAt, ok := s.earlyCloses[date]; ok && minute >= closeAt-s.earlyCloseLead {
		return true
	}

	if s.haltStart.IsNone() || s.haltEnd.IsNone() {
		return false
	}

	start, end := s.haltStart.Unwrap(), s.haltEnd.Unwrap()
	if start <= end {
		return minute >= start && minute < end
	}

	// window wraps midnight
	return minute >= start || minute < end
}

// SessionName classifies t into the Asia, Europe or New York session of the
// exchange clock. It returns "" outside all three.
func (s *SessionCalendar) SessionName(t time.Time) string {
	_, minute := s.clock(t)

	switch {
	case minute >= 18*60:
		return SessionAsia
	case minute >= 2*60 && minute < 8*60+30:
		return SessionEurope
	case minute >= 8*60+30 && minute < 15*60:
		return SessionNewYork
	default:
		return ""
	}
}

// Hour returns the exchange-clock hour of t.
func (s *SessionCalendar) Hour(t time.Time) int {
	return t.In(s.location).Hour()
}
