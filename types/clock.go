package types

import "time"

// Clock is the time source used for load timestamps and age checks.
// Tests swap it out to move time forward without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
