package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Poller runs a function right away and then at a fixed interval until its
// context is cancelled. Trigger runs it early.
type Poller struct {
	interval time.Duration
	fn       func(ctx context.Context)
	trigger  chan struct{}
	logger   *log.Entry
}

// NewPoller creates a poller calling fn every interval
func NewPoller(name string, interval time.Duration, fn func(ctx context.Context)) *Poller {
	return &Poller{
		interval: interval,
		fn:       fn,
		trigger:  make(chan struct{}, 1),
		logger:   log.WithField("poller", name),
	}
}

// Run blocks until ctx is cancelled
func (p *Poller) Run(ctx context.Context) {
	p.logger.WithField("interval", p.interval).Debug("poller started")
	defer p.logger.Debug("poller stopped")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		p.fn(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-p.trigger:
			ticker.Reset(p.interval)
		}
	}
}

// Trigger asks for an early run. It never blocks; triggers that arrive
// while one is pending are merged.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}
