package monitoring

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/taskhub-app/taskhub-be/internal/services"
)

// SessionPruner periodically deletes expired session rows. Verification
// checks expiry on every request regardless; this only keeps the sessions
// table from accumulating dead entries.
type SessionPruner struct {
	sessions services.SessionServiceProvider
	schedule cron.Schedule
	ticker   *time.Ticker
	done     chan bool
	nextRun  time.Time
}

// NewSessionPruner creates a pruner firing on the given standard cron
// expression (e.g. "@hourly").
func NewSessionPruner(sessions services.SessionServiceProvider, spec string) (*SessionPruner, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, err
	}
	return &SessionPruner{
		sessions: sessions,
		schedule: schedule,
		done:     make(chan bool),
		nextRun:  schedule.Next(time.Now()),
	}, nil
}

// Run starts the pruner's ticking loop.
func (p *SessionPruner) Run() {
	log.Info().Msg("Starting session pruner")
	p.ticker = time.NewTicker(1 * time.Minute)
	defer p.ticker.Stop()

	for {
		select {
		case <-p.done:
			log.Info().Msg("Stopping session pruner")
			return
		case <-p.ticker.C:
			now := time.Now()
			if now.After(p.nextRun) {
				p.prune()
				p.nextRun = p.schedule.Next(now)
			}
		}
	}
}

// Stop halts the pruner.
func (p *SessionPruner) Stop() {
	p.done <- true
}

func (p *SessionPruner) prune() {
	removed, err := p.sessions.PruneExpired()
	if err != nil {
		log.Error().Err(err).Msg("Session prune failed")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Pruned expired sessions")
	}
}
