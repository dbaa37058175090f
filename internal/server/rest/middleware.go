package rest

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/alumnae/internal/common"
	"github.com/dmitrijs2005/alumnae/internal/server/models"
)

type localsKey string

const (
	userKey  localsKey = "user"
	tokenKey localsKey = "token"
)

// accessLog logs every request and records it in the HTTP metrics. Errors
// are rendered here so the logged status is the one sent.
func (s *HTTPServer) accessLog(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := c.App().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	elapsed := time.Since(start)

	route := c.Route().Path
	s.metrics.HTTPRequest(c.Method(), route, strconv.Itoa(status), elapsed.Seconds())
	s.logger.Info(c.UserContext(), "request",
		"method", c.Method(),
		"path", c.Path(),
		"route", route,
		"status", status,
		"latency", elapsed.String(),
		"request_id", requestID(c),
	)
	return nil
}

// requireAuth authenticates the bearer token and stores the user for the
// handlers down the chain.
func (s *HTTPServer) requireAuth(c *fiber.Ctx) error {
	token := bearerToken(c.Get(common.AuthorizationHeaderName))

	user, err := s.svc.Guard.Authenticate(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(userKey, user)
	c.Locals(tokenKey, token)
	return c.Next()
}

func (s *HTTPServer) requireAdmin(c *fiber.Ctx) error {
	user := currentUser(c)
	if user == nil || !user.IsAdmin {
		return common.ErrForbidden
	}
	return c.Next()
}

// rateLimit throttles requests per client IP.
func (s *HTTPServer) rateLimit(c *fiber.Ctx) error {
	if !s.limiters.Allow(c.IP()) {
		return fiber.NewError(fiber.StatusTooManyRequests, "Too many login attempts, please try again later")
	}
	return c.Next()
}

func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(userKey).(*models.User)
	return u
}

func currentToken(c *fiber.Ctx) string {
	t, _ := c.Locals(tokenKey).(string)
	return t
}

func requestID(c *fiber.Ctx) string {
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// RateLimiterRegistry keeps one token bucket per key. A bucket left idle
// long enough to refill completely is dropped, since a fresh one behaves
// the same; this keeps the map bounded by the keys seen in that window.
type RateLimiterRegistry struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiterRegistry creates a registry whose buckets refill at perSecond
// and hold burst tokens. A non-positive perSecond disables limiting.
func NewRateLimiterRegistry(perSecond float64, burst int) *RateLimiterRegistry {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}

	r := &RateLimiterRegistry{buckets: make(map[string]*bucket), limit: limit, burst: burst, now: time.Now}
	if limit != rate.Inf {
		r.idle = time.Duration(float64(burst) / perSecond * float64(time.Second))
	}
	return r
}

// GetOrCreate returns the limiter for key, creating it on first use.
func (r *RateLimiterRegistry) GetOrCreate(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(key, r.now()).limiter
}

// Allow reports whether key may make one more request now.
func (r *RateLimiterRegistry) Allow(key string) bool {
	if r.limit == rate.Inf {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	return r.get(key, now).limiter.AllowN(now, 1)
}

// Sweep drops idle buckets and reports how many were removed.
func (r *RateLimiterRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweep(r.now())
}

// Len reports the number of buckets held.
func (r *RateLimiterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

// get must be called with mu held. New keys trigger a sweep at most once
// per idle window.
func (r *RateLimiterRegistry) get(key string, now time.Time) *bucket {
	b, ok := r.buckets[key]
	if !ok {
		if now.Sub(r.lastSweep) >= r.idle {
			r.sweep(now)
		}
		b = &bucket{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

func (r *RateLimiterRegistry) sweep(now time.Time) int {
	n := 0
	for k, b := range r.buckets {
		if now.Sub(b.lastSeen) >= r.idle {
			delete(r.buckets, k)
			n++
		}
	}
	r.lastSweep = now
	return n
}
