package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript bumps the counter for a key and starts the window on
// the first hit.  Running it as a single script keeps INCR and PEXPIRE
// atomic across concurrent requests.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// OTPLimiter is a Redis-backed fixed-window counter guarding the OTP send
// endpoint against mail flooding.  Keys combine the target email with the
// caller IP so one abuser cannot lock everyone out of an address.
type OTPLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewOTPLimiter builds a limiter.  A nil Redis client disables limiting;
// Allow then always returns true so password resets keep working when
// Redis is down.
func NewOTPLimiter(client *redis.Client, limit int, window time.Duration) *OTPLimiter {
	if limit <= 0 {
		limit = 3
	}
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &OTPLimiter{client: client, limit: limit, window: window, prefix: "otp:send"}
}

// Allow reports whether another OTP may be sent for the email/IP pair in
// the current window.
func (l *OTPLimiter) Allow(ctx context.Context, email, ip string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key := fmt.Sprintf("%s:%s:%s", l.prefix, email, ip)
	count, err := fixedWindowScript.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Int()
	if err != nil {
		// Redis hiccups should not block password resets.
		return true
	}
	return count <= l.limit
}
