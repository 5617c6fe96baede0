package engine

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SessionCalendarTestSuite struct {
	suite.Suite
	chicago *time.Location
}

func TestSessionCalendarSuite(t *testing.T) {
	suite.Run(t, new(SessionCalendarTestSuite))
}

func (suite *SessionCalendarTestSuite) SetupSuite() {
	location, err := time.LoadLocation("America/Chicago")
	suite.Require().NoError(err)
	suite.chicago = location
}

func (suite *SessionCalendarTestSuite) at(date string, clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, suite.chicago)
	suite.Require().NoError(err)

	return t
}

func (suite *SessionCalendarTestSuite) newCalendar(mutate func(c *SessionConfig)) *SessionCalendar {
	config := EmptyConfig().Session
	if mutate != nil {
		mutate(&config)
	}

	calendar, err := NewSessionCalendar(config)
	suite.Require().NoError(err)

	return calendar
}

func (suite *SessionCalendarTestSuite) TestParseClock() {
	minute, err := parseClock("15:45")
	suite.NoError(err)
	suite.Equal(15*60+45, minute)

	_, err = parseClock("3pm")
	suite.Error(err)
	suite.Equal(errors.ErrCodeInvalidSessionClock, errors.GetCode(err))
}

func (suite *SessionCalendarTestSuite) TestForceCloseExactMinuteOnly() {
	calendar := suite.newCalendar(nil)

	reason, ok := calendar.ForceCloseReason(suite.at("2024-03-05", "15:45"))
	suite.True(ok)
	suite.Equal(types.ReasonForceCloseEOD, reason)

	_, ok = calendar.ForceCloseReason(suite.at("2024-03-05", "15:44"))
	suite.False(ok)

	_, ok = calendar.ForceCloseReason(suite.at("2024-03-05", "15:46"))
	suite.False(ok)
}

func (suite *SessionCalendarTestSuite) TestForceCloseUsesExchangeClock() {
	calendar := suite.newCalendar(nil)

	// 21:45 UTC is 15:45 in Chicago during standard time
	_, ok := calendar.ForceCloseReason(time.Date(2024, 1, 9, 21, 45, 0, 0, time.UTC))
	suite.True(ok)
}

func (suite *SessionCalendarTestSuite) TestForceCloseDisabled() {
	calendar := suite.newCalendar(func(c *SessionConfig) { c.ForceCloseTime = "" })

	_, ok := calendar.ForceCloseReason(suite.at("2024-03-05", "15:45"))
	suite.False(ok)
}

func (suite *SessionCalendarTestSuite) TestConfiguredEarlyClose() {
	calendar := suite.newCalendar(func(c *SessionConfig) {
		c.EarlyCloseTime = "12:00"
		c.EarlyCloseDates = []string{"2024-11-29"}
	})

	closeAt, ok := calendar.EarlyClose(suite.at("2024-11-29", "09:00"))
	suite.True(ok)
	suite.Equal(12*60, closeAt)

	_, ok = calendar.ForceCloseReason(suite.at("2024-11-29", "11:59"))
	suite.False(ok)

	reason, ok := calendar.ForceCloseReason(suite.at("2024-11-29", "12:00"))
	suite.True(ok)
	suite.Equal(types.ReasonEarlyClose, reason)

	reason, ok = calendar.ForceCloseReason(suite.at("2024-11-29", "12:05"))
	suite.True(ok)
	suite.Equal(types.ReasonEarlyClose, reason)

	// early close dates report EARLY_CLOSE even at the regular force close minute
	reason, ok = calendar.ForceCloseReason(suite.at("2024-11-29", "15:45"))
	suite.True(ok)
	suite.Equal(types.ReasonEarlyClose, reason)

	suite.False(calendar.IsHalted(suite.at("2024-11-29", "11:44")))
	suite.True(calendar.IsHalted(suite.at("2024-11-29", "11:45")))
}

func (suite *SessionCalendarTestSuite) TestHaltWindow() {
	calendar := suite.newCalendar(nil)

	suite.False(calendar.IsHalted(suite.at("2024-03-05", "15:39")))
	suite.True(calendar.IsHalted(suite.at("2024-03-05", "15:40")))
	suite.True(calendar.IsHalted(suite.at("2024-03-05", "16:59")))
	suite.False(calendar.IsHalted(suite.at("2024-03-05", "17:00")))
}

func (suite *SessionCalendarTestSuite) TestHaltWindowWrapsMidnight() {
	calendar := suite.newCalendar(func(c *SessionConfig) {
		c.HaltStart = "23:00"
		c.HaltEnd = "01:00"
	})

	suite.True(calendar.IsHalted(suite.at("2024-03-05", "23:30")))
	suite.True(calendar.IsHalted(suite.at("2024-03-06", "00:30")))
	suite.False(calendar.IsHalted(suite.at("2024-03-06", "01:00")))
	suite.False(calendar.IsHalted(suite.at("2024-03-05", "22:59")))
}

func (suite *SessionCalendarTestSuite) TestDetectEarlyCloses() {
	bars := []types.Bar{
		{Time: suite.at("2024-11-27", "15:59")},
		{Time: suite.at("2024-11-29", "11:30")},
		{Time: suite.at("2024-11-29", "12:15")},
		{Time: suite.at("2024-12-02", "10:00")},
	}

	detected := DetectEarlyCloses(bars, suite.chicago, 13*60)

	suite.Equal(map[string]int{"2024-11-29": 12*60 + 15}, detected)
}

func (suite *SessionCalendarTestSuite) TestWithDetectedEarlyClosesKeepsConfiguredDates() {
	calendar := suite.newCalendar(func(c *SessionConfig) {
		c.EarlyCloseTime = "12:00"
		c.EarlyCloseDates = []string{"2024-11-29"}
	})

	bars := []types.Bar{
		{Time: suite.at("2024-07-03", "12:30")},
		{Time: suite.at("2024-11-29", "11:00")},
		{Time: suite.at("2024-12-02", "10:00")},
	}

	detected := calendar.WithDetectedEarlyCloses(bars, 13*60)

	closeAt, ok := detected.EarlyClose(suite.at("2024-11-29", "08:00"))
	suite.True(ok)
	suite.Equal(12*60, closeAt)

	closeAt, ok = detected.EarlyClose(suite.at("2024-07-03", "08:00"))
	suite.True(ok)
	suite.Equal(12*60+30, closeAt)

	// the source calendar is untouched
	_, ok = calendar.EarlyClose(suite.at("2024-07-03", "08:00"))
	suite.False(ok)
}

func (suite *SessionCalendarTestSuite) TestSessionName() {
	calendar := suite.newCalendar(nil)

	suite.Equal(SessionAsia, calendar.SessionName(suite.at("2024-03-05", "19:00")))
	suite.Equal(SessionEurope, calendar.SessionName(suite.at("2024-03-05", "03:00")))
	suite.Equal(SessionNewYork, calendar.SessionName(suite.at("2024-03-05", "08:30")))
	suite.Equal("", calendar.SessionName(suite.at("2024-03-05", "16:00")))
	suite.Equal(9, calendar.Hour(suite.at("2024-03-05", "09:59")))
}

func (suite *SessionCalendarTestSuite) TestInvalidEarlyCloseDate() {
	config := EmptyConfig().Session
	config.EarlyCloseTime = "12:00"
	config.EarlyCloseDates = []string{"29/11/2024"}

	_, err := NewSessionCalendar(config)
	suite.Error(err)
}
