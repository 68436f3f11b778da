package utils

import "time"

// TruncateToDay strips the time-of-day component in UTC.
func TruncateToDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// SameCalendarDay reports whether two instants fall on the same UTC day.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// TimestampedFilename builds names like backtest_results_20260831_153000.json
func TimestampedFilename(prefix, ext string) string {
	return prefix + "_" + time.Now().Format("20060102_150405") + "." + ext
}
