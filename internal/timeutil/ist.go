// Package timeutil converts absolute instants to civil dates and times
// under the fixed +05:30 offset the order desk operates in. The offset
// is a constant shift, never the host timezone database, so output is
// identical regardless of where the binary runs.
package timeutil

import "time"

const istOffsetSeconds = 5*3600 + 30*60

// IST is the fixed +05:30 zone used for all civil-date derivation.
var IST = time.FixedZone("IST", istOffsetSeconds)

// CivilDate returns the YYYY-MM-DD date of t in the fixed offset.
func CivilDate(t time.Time) string {
	return t.In(IST).Format("2006-01-02")
}

// CivilTime returns the HH:MM:SS time-of-day of t in the fixed offset.
func CivilTime(t time.Time) string {
	return t.In(IST).Format("15:04:05")
}

// DisplayDate returns the DD/MM/YYYY label used for older-group headers.
func DisplayDate(t time.Time) string {
	return t.In(IST).Format("02/01/2006")
}

// YesterdayOf returns the civil date one calendar day before now.
func YesterdayOf(now time.Time) string {
	return now.In(IST).AddDate(0, 0, -1).Format("2006-01-02")
}
