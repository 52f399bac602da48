package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically deletes sessions whose host connection is gone from
// the transport. It catches hosts whose disconnect notification was lost.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
	log      zerolog.Logger
}

func NewSweeper(engine *Engine, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Sweeper{engine: engine, interval: interval, log: log}
}

// Run sweeps until ctx is done.
func (sw *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := sw.engine.SweepOrphans(); n > 0 {
				sw.log.Info().Int("sessions", n).Msg("swept orphaned sessions")
			}
		case <-ctx.Done():
			return
		}
	}
}
