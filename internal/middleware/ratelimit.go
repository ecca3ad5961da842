package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/forgo/odmapi/internal/model"
)

// RateLimiter is a per-client token bucket. Each client holds up to
// Rate+Burst tokens and regains Rate tokens per Window.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
	burst   int
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimitConfig holds rate limiter configuration. Zero values take defaults.
type RateLimitConfig struct {
	Rate    int           // tokens regained per window (default 100)
	Window  time.Duration // default 1 minute
	Burst   int           // extra capacity above Rate (default 20)
	Cleanup time.Duration // idle bucket sweep interval (default 5 minutes)
	Now     func() time.Time
}

// NewRateLimiter creates a limiter and starts its idle-bucket sweeper.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Burst < 0 {
		cfg.Burst = 0
	} else if cfg.Burst == 0 {
		cfg.Burst = 20
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    cfg.Rate,
		window:  cfg.Window,
		burst:   cfg.Burst,
		now:     cfg.Now,
		stop:    make(chan struct{}),
	}
	go rl.sweep(cfg.Cleanup)
	return rl
}

// Stop ends the sweeper. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := rl.now().Add(-2 * rl.window)
			for key, b := range rl.buckets {
				if b.lastSeen.Before(cutoff) {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) capacity() float64 { return float64(rl.rate + rl.burst) }

// Allow takes a token for key. It returns the whole tokens left and the
// time until the next token is available.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, retryIn time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity(), lastSeen: now}
		rl.buckets[key] = b
	}

	perToken := rl.window / time.Duration(rl.rate)
	if elapsed := now.Sub(b.lastSeen); elapsed > 0 {
		b.tokens = min(rl.capacity(), b.tokens+float64(elapsed)/float64(perToken))
		b.lastSeen = now
	}

	if b.tokens < 1 {
		wait := time.Duration((1 - b.tokens) * float64(perToken))
		return false, 0, wait
	}
	b.tokens--
	return true, int(b.tokens), 0
}

// RateLimit rejects clients that exhaust their bucket with a 429 problem.
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, remaining, retryIn := limiter.Allow(ClientKey(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limiter.rate+limiter.burst))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				retryAfter := max(int((retryIn+time.Second-1)/time.Second), 1)
				h.Set("X-RateLimit-Reset", strconv.FormatInt(limiter.now().Add(retryIn).Unix(), 10))
				h.Set("Retry-After", strconv.Itoa(retryAfter))
				model.NewRateLimitError(retryAfter).WithInstance(r.URL.Path).WriteJSON(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
