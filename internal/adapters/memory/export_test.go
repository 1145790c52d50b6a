package memory

import "time"

// SetClock replaces the limiter's time source.
func (t *TokenBucket) SetClock(now func() time.Time) { t.now = now }
