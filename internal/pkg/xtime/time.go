package xtime

import "time"

func UTCNow() time.Time {
	return time.Now().UTC()
}

var utcNowFunc = UTCNow

// setUTCNowFunc sets the function used to get current UTC time.
// This is primarily used for testing to mock the current time.
func setUTCNowFunc(f func() time.Time) {
	utcNowFunc = f
}

// resetUTCNowFunc resets the UTC now function to the default implementation.
// This should be called in test cleanup to avoid affecting other tests.
func resetUTCNowFunc() {
	utcNowFunc = UTCNow
}

// Clock returns the current time. Components take one so tests can pin it.
type Clock func() time.Time

// Now is the default Clock.
func Now() time.Time {
	return utcNowFunc()
}

// UnixMilli returns the clock reading in unix milliseconds.
func (c Clock) UnixMilli() int64 {
	if c == nil {
		return Now().UnixMilli()
	}

	return c().UnixMilli()
}

// FromUnixMilli converts unix milliseconds to a UTC time.
func FromUnixMilli(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FileStamp formats t for use in file names: 2006-01-02T15-04-05 in UTC.
func FileStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15-04-05")
}

// DateStamp formats t as 2006-01-02 in UTC.
func DateStamp(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
