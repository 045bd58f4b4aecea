// Package probe periodically checks that the weather provider is reachable
// with the configured credentials.
package probe

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/lox/weather8/internal/metrics"
)

const checkTimeout = 30 * time.Second

// Pinger is satisfied by *weatherapi.Client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the outcome of the most recent check. A zero LastRun means no
// check has completed yet.
type Status struct {
	LastRun time.Time `json:"last_run"`
	OK      bool      `json:"ok"`
	Error   string    `json:"error,omitempty"`
}

type Prober struct {
	pinger    Pinger
	interval  time.Duration
	scheduler *gocron.Scheduler

	mu     sync.RWMutex
	status Status
}

// New returns a prober that pings every interval once started. An interval
// of zero or less disables scheduling; Check still works.
func New(pinger Pinger, interval time.Duration) *Prober {
	return &Prober{
		pinger:   pinger,
		interval: interval,
	}
}

// Check pings the provider once and records the result.
func (p *Prober) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	err := p.pinger.Ping(ctx)
	st := Status{LastRun: time.Now().UTC(), OK: err == nil}
	if err != nil {
		st.Error = err.Error()
		log.Printf("probe: provider check failed: %v", err)
		metrics.ProviderUp.Set(0)
	} else {
		metrics.ProviderUp.Set(1)
	}

	p.mu.Lock()
	p.status = st
	p.mu.Unlock()
	return st
}

// Status returns the last recorded result.
func (p *Prober) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Enabled reports whether Start schedules anything.
func (p *Prober) Enabled() bool {
	return p.interval > 0
}

// Start schedules Check every interval, running the first check immediately.
func (p *Prober) Start() error {
	if !p.Enabled() {
		log.Println("probe: disabled")
		return nil
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	if _, err := s.Every(p.interval).Do(func() {
		p.Check(context.Background())
	}); err != nil {
		return err
	}

	log.Printf("probe: checking provider every %s", p.interval)
	p.scheduler = s
	s.StartAsync()
	return nil
}

func (p *Prober) Stop() {
	if p.scheduler != nil {
		p.scheduler.Stop()
	}
}
