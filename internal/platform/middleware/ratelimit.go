package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	dErrors "xup/pkg/domain-errors"
	"xup/pkg/platform/httputil"
)

// RateLimitConfig allows Requests per Window per client IP, with the full
// window's allowance available as burst. A nil ClientIP keys on the socket peer.
type RateLimitConfig struct {
	Requests        int
	Window          time.Duration
	CleanupInterval time.Duration
	ClientIP        *ClientIPResolver
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter tracks one token bucket per client IP.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	cleanup  time.Duration
	logger   *slog.Logger
	onReject func()
	clientIP *ClientIPResolver

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter starts a limiter with a background loop that evicts idle clients.
// onReject, if set, is called for every rejected request.
func NewRateLimiter(cfg RateLimitConfig, logger *slog.Logger, onReject func()) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		limit:    rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:    cfg.Requests,
		cleanup:  cfg.CleanupInterval,
		logger:   logger,
		onReject: onReject,
		clientIP: cfg.ClientIP,
		clients:  make(map[string]*clientLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup loop. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.clientIP.Resolve(r)
		if !rl.limiterFor(ip).Allow() {
			retryAfter := int(math.Ceil(1.0 / float64(rl.limit)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			if rl.onReject != nil {
				rl.onReject()
			}
			if rl.logger != nil {
				rl.logger.WarnContext(r.Context(), "rate limit exceeded",
					"client_ip", ip,
					"request_id", GetRequestID(r.Context()),
				)
			}
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests from this IP, please try again later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientCount returns the number of tracked clients.
func (rl *RateLimiter) ClientCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if cl, ok := rl.clients[ip]; ok {
		cl.lastAccess = now
		return cl.limiter
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.clients[ip] = &clientLimiter{limiter: l, lastAccess: now}
	return l
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictIdle(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

// evictIdle drops clients idle for more than two cleanup intervals.
func (rl *RateLimiter) evictIdle(now time.Time) {
	ttl := rl.cleanup * 2
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, cl := range rl.clients {
		if now.Sub(cl.lastAccess) > ttl {
			delete(rl.clients, ip)
		}
	}
}
