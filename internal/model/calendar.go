package model

import "time"

// The fleet operates on a fixed UTC+8 business calendar regardless of where
// the service runs. Day boundaries are midnight in this zone, not UTC.
var businessZone = time.FixedZone("UTC+8", 8*60*60)

// BusinessZone returns the fleet's operating time zone.
func BusinessZone() *time.Location {
	return businessZone
}

// BusinessDate truncates t to the calendar day it falls on in the business
// zone. The result is midnight UTC+8 of that day.
func BusinessDate(t time.Time) time.Time {
	local := t.In(businessZone)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, businessZone)
}

// BusinessDayEnd returns the exclusive upper bound of the business day that
// date falls on: midnight UTC+8 of the following day.
func BusinessDayEnd(date time.Time) time.Time {
	return BusinessDate(date).AddDate(0, 0, 1)
}

// PriorBusinessDayEnd returns the end of the business day before the one
// date falls on. Clock-in verification compares against this closing state.
func PriorBusinessDayEnd(date time.Time) time.Time {
	return BusinessDate(date)
}

// SameBusinessDay reports whether two instants fall on the same business day.
func SameBusinessDay(a, b time.Time) bool {
	return BusinessDate(a).Equal(BusinessDate(b))
}

// ParseBusinessDate parses a YYYY-MM-DD string as a business calendar day.
func ParseBusinessDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, businessZone)
}

// FormatBusinessDate renders the business calendar day of t as YYYY-MM-DD.
func FormatBusinessDate(t time.Time) string {
	return t.In(businessZone).Format("2006-01-02")
}
