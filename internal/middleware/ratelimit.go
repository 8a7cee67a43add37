package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	svcerrors "github.com/R3E-Network/exercise_tracker/internal/errors"
	"github.com/R3E-Network/exercise_tracker/pkg/logger"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides per-client token bucket rate limiting
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	logger   *logger.Logger
	now      func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerSecond int, burst int, log *logger.Logger) *RateLimiter {
	if log == nil {
		log = logger.NewDefault("ratelimit")
	}
	if burst <= 0 {
		burst = requestsPerSecond
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		logger:   log,
		now:      time.Now,
	}
}

// getLimiter returns the limiter for key, creating it on first use
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Handler returns the rate limiting middleware handler
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)

		if !rl.getLimiter(key).Allow() {
			rl.logger.WithContext(r.Context()).WithField("key", key).WithField("path", r.URL.Path).Warn("rate limit exceeded")

			serviceErr := svcerrors.RateLimitExceeded(int(rl.rate), "1s")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(serviceErr.HTTPStatus)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": serviceErr.PublicMessage()})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Cleanup removes limiters idle for longer than idle and reports how many
// were removed
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of tracked clients
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CleanupScheduler sweeps idle limiters on a cron schedule. It implements the
// lifecycle service contract (Name, Start, Stop).
type CleanupScheduler struct {
	limiter  *RateLimiter
	schedule string
	idle     time.Duration
	log      *logger.Logger
	cron     *cron.Cron
}

// NewCleanupScheduler sweeps limiter every interval, dropping clients idle
// for longer than idle
func NewCleanupScheduler(limiter *RateLimiter, interval, idle time.Duration, log *logger.Logger) *CleanupScheduler {
	if log == nil {
		log = logger.NewDefault("ratelimit-cleanup")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &CleanupScheduler{
		limiter:  limiter,
		schedule: fmt.Sprintf("@every %s", interval),
		idle:     idle,
		log:      log,
	}
}

func (s *CleanupScheduler) Name() string { return "ratelimit-cleanup" }

func (s *CleanupScheduler) Start(context.Context) error {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(s.log)))
	if _, err := c.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("schedule limiter cleanup: %w", err)
	}
	c.Start()
	s.cron = c
	return nil
}

func (s *CleanupScheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	done := s.cron.Stop()
	s.cron = nil
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *CleanupScheduler) sweep() {
	if removed := s.limiter.Cleanup(s.idle); removed > 0 {
		s.log.Debugf("removed %d idle rate limiters", removed)
	}
}
