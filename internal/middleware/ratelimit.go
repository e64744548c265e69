package middleware

import (
	"math"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/citation-map-backend/pkg/response"
)

// RateLimiter allows at most limit requests per client within a sliding window.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time // ascending per client

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter and starts its sweeper. Call Stop when done.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
		stop:   make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// sweep drops clients that have been idle for a whole window.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for client, hits := range rl.hits {
				if hits = rl.prune(hits, now); len(hits) == 0 {
					delete(rl.hits, client)
				} else {
					rl.hits[client] = hits
				}
			}
			rl.mu.Unlock()
		}
	}
}

// prune removes hits that fell out of the window, reusing the slice.
func (rl *RateLimiter) prune(hits []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	i := sort.Search(len(hits), func(i int) bool { return hits[i].After(cutoff) })
	n := copy(hits, hits[i:])
	return hits[:n]
}

// Reserve records a request from client if it is within the limit.
// Otherwise it reports how long until the oldest hit leaves the window.
func (rl *RateLimiter) Reserve(client string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	hits := rl.prune(rl.hits[client], now)
	if len(hits) >= rl.limit {
		if len(hits) == 0 {
			return false, rl.window
		}
		rl.hits[client] = hits
		return false, hits[0].Add(rl.window).Sub(now)
	}
	rl.hits[client] = append(hits, now)
	return true, 0
}

// Allow reports whether a request from client may proceed.
func (rl *RateLimiter) Allow(client string) bool {
	ok, _ := rl.Reserve(client)
	return ok
}

// RateLimit rejects clients over the limit with 429 and a Retry-After header.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := limiter.Reserve(c.ClientIP())
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}
		c.Next()
	}
}
