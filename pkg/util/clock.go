package util

import "time"

// Clock abstracts time for deterministic tests. Order timestamps and fill
// timestamps come from here, never from time.Now directly.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
