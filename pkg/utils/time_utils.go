package utils

import "time"

// parisLoc is the business timezone used for display and exports.
var parisLoc = func() *time.Location {
	if loc, err := time.LoadLocation("Europe/Paris"); err == nil {
		return loc
	}
	return time.FixedZone("CET", 3600)
}()

func NowUnixSeconds() int64 { return time.Now().Unix() }

func FormatDisplayFR(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(parisLoc).Format("02/01/2006 15:04")
}
