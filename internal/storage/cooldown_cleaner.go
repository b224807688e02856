package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RunCooldownCleaner clears expired daily claims every interval until ctx is
// done. Call from main or app lifecycle.
func RunCooldownCleaner(ctx context.Context, store *Storage, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.ClearExpiredCooldowns(now)
			if err != nil {
				log.Error().Err(err).Msg("Error clearing expired cooldowns")
				continue
			}
			if n > 0 {
				log.Debug().Int("cleared", n).Msg("Expired cooldowns cleared")
			}
		}
	}
}
