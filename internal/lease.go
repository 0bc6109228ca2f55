package internal

import (
	"time"

	"go.uber.org/zap"

	"github.com/AnatoleLucet/reflow/internal/capability"
	"github.com/AnatoleLucet/reflow/internal/queues"
)

// leases keep observables read during another recording bound for a short
// while. Every lease taken before the expiry fires shares that expiry.
type leases struct {
	rt       *Runtime
	clock    Clock
	duration time.Duration

	// registered on every leased observable
	handler *queues.Handler

	held  []any
	timer Timer

	// identifies the current lease batch, expiries of older batches are dropped
	gen uint64
}

func newLeases(rt *Runtime, clock Clock, duration time.Duration) *leases {
	if duration <= 0 {
		duration = DefaultLeaseDuration
	}
	return &leases{
		rt:       rt,
		clock:    clock,
		duration: duration,
		handler:  queues.NewHandler("temporarilyBound", func(args ...any) {}),
	}
}

// take binds obs until the current lease batch expires.
func (l *leases) take(obs any) {
	if err := capability.OnValue(obs, l.handler, queues.MutateQueue); err != nil {
		panic(err)
	}

	if l.held == nil {
		l.held = []any{}
		l.gen++
		gen := l.gen
		l.timer = l.clock.AfterFunc(l.duration, func() {
			l.rt.post(func() { l.expireBatch(gen) })
		})
	}
	l.held = append(l.held, obs)
}

func (l *leases) count() int { return len(l.held) }

func (l *leases) expireBatch(gen uint64) {
	if gen != l.gen {
		return
	}
	l.expire()
}

func (l *leases) expire() {
	held := l.held
	l.held = nil
	l.timer = nil

	if len(held) > 0 {
		l.rt.logger.Debug("leases expired", zap.Int("count", len(held)))
	}
	for _, obs := range held {
		if err := capability.OffValue(obs, l.handler, queues.MutateQueue); err != nil {
			panic(err)
		}
	}
}

// release stops the pending expiry and unbinds every leased observable now.
func (l *leases) release() {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.gen++
	l.expire()
}
