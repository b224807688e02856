package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/keshon/botcmd/pkg/cmd"
	"golang.org/x/time/rate"
)

const (
	limiterIdle  = 10 * time.Minute
	limiterSweep = 1024
)

type callerLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// Cooldown hands every caller a token bucket refilled perMinute times a
// minute.
type Cooldown struct {
	mu       sync.Mutex
	perMin   int
	exempt   cmd.Level
	limiters map[string]*callerLimiter
	now      func() time.Time
}

// NewCooldown returns a cooldown; perMinute <= 0 disables it. Callers at or
// above exempt are never limited.
func NewCooldown(perMinute int, exempt cmd.Level) *Cooldown {
	return &Cooldown{
		perMin:   perMinute,
		exempt:   exempt,
		limiters: make(map[string]*callerLimiter),
		now:      time.Now,
	}
}

// Allow takes a token for the caller.
func (cd *Cooldown) Allow(callerID string) bool {
	if cd.perMin <= 0 {
		return true
	}
	cd.mu.Lock()
	defer cd.mu.Unlock()

	now := cd.now()
	if len(cd.limiters) >= limiterSweep {
		for id, l := range cd.limiters {
			if now.Sub(l.seen) > limiterIdle {
				delete(cd.limiters, id)
			}
		}
	}
	l, ok := cd.limiters[callerID]
	if !ok {
		l = &callerLimiter{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cd.perMin)), cd.perMin)}
		cd.limiters[callerID] = l
	}
	l.seen = now
	return l.lim.AllowN(now, 1)
}

// Middleware returns the dispatch step guard.
func (cd *Cooldown) Middleware() cmd.Middleware {
	return func(next cmd.Step) cmd.Step {
		return func(ctx context.Context, c *cmd.Context) error {
			if c.CallerLevel >= cd.exempt || cd.Allow(c.Caller.ID) {
				return next(ctx, c)
			}
			return c.Reply(ctx, "Slow down! You're sending commands too fast, try again in a moment.")
		}
	}
}
