package xtime

import "time"

func UTCNow() time.Time {
	return time.Now().UTC()
}

var utcNowFunc = UTCNow

// Now returns the current UTC time through the mockable clock.
func Now() time.Time {
	return utcNowFunc()
}

// SetNowFunc sets the function used to get current UTC time.
// This is primarily used for testing to mock the current time.
func SetNowFunc(f func() time.Time) {
	utcNowFunc = f
}

// ResetNowFunc resets the clock to the default implementation.
// This should be called in test cleanup to avoid affecting other tests.
func ResetNowFunc() {
	utcNowFunc = UTCNow
}
