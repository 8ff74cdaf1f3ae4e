// Package biztime centralizes wall-clock access. Everything is stored and
// compared in UTC; provider timestamps are unix seconds.
package biztime

import "time"

// Now is replaceable in tests.
var Now = time.Now

func NowUTC() time.Time {
	return Now().UTC()
}

func NowUnix() int64 {
	return Now().Unix()
}

// FromUnix converts provider epoch seconds to a UTC time. Zero stays zero.
func FromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
