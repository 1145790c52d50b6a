package memory

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// AlwaysAllow is a stub RateLimiter that permits every request.
type AlwaysAllow struct{}

func (AlwaysAllow) Allow(_, _ string) bool { return true }

// minIdle is the shortest time a client bucket is kept after its last request.
const minIdle = time.Minute

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// TokenBucket keeps one token bucket per client. A client is its token when
// it sends one, otherwise its IP. Buckets idle long enough to have refilled
// are dropped, since a fresh bucket behaves the same.
type TokenBucket struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	buckets   map[string]*bucket
	now       func() time.Time
}

// NewTokenBucket allows rps requests per second per client with the given burst.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	idle := minIdle
	if rps > 0 {
		if refill := time.Duration(float64(burst) / rps * float64(time.Second)); refill > idle {
			idle = refill
		}
	}
	return &TokenBucket{
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    idle,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (t *TokenBucket) Allow(ip, token string) bool {
	key := "ip:" + ip
	if token != "" {
		key = "token:" + token
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastSweep) >= t.idle {
		t.sweep(now)
	}

	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1)
}

// Len reports how many client buckets are held.
func (t *TokenBucket) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buckets)
}

func (t *TokenBucket) sweep(now time.Time) {
	for k, b := range t.buckets {
		if now.Sub(b.lastSeen) >= t.idle {
			delete(t.buckets, k)
		}
	}
	t.lastSweep = now
}
