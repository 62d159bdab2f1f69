package middleware

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// rateLimiterStore holds a map of client IPs to their rate limiters.
type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

var limiterStore = &rateLimiterStore{
	limiters: make(map[string]*rate.Limiter),
}

func (s *rateLimiterStore) getLimiter(ip string, every time.Duration, burst int) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(every), burst)
		s.limiters[ip] = limiter
	}
	return limiter
}

// VerifyRateLimit caps payment verification attempts per IP. The reconciliation
// loop legitimately polls every 5 seconds, so the limiter leaves headroom for
// one loop while starving scripted hammering.
func VerifyRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		limiter := limiterStore.getLimiter(ip, 2*time.Second, 15)
		if !limiter.Allow() {
			log.Printf("Rate limit exceeded for %s on %s", ip, c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false, "message": "Too many verification attempts. Try again later.",
			})
		}
		return c.Next()
	}
}
