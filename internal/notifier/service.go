package notifier

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "shutdowner/pkg/logx"
)

var (
	ErrDisabled  = errors.New("notifier disabled")
	ErrQueueFull = errors.New("notifier queue full")
	ErrStopped   = errors.New("notifier stopped")
)

// Service is safe for concurrent use.
type Service struct {
	log    logx.Logger
	sender Sender

	mu        sync.Mutex
	cfg       Config
	limiter   *rate.Limiter
	queue     chan Notification
	accepting bool
	done      chan struct{}
}

func New(cfg Config, sender Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	s := &Service{
		log:     log.With(logx.String("comp", "notifier")),
		sender:  sender,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		queue:   make(chan Notification, cfg.QueueSize),
	}
	// accept before Run starts; queued items wait for the worker
	s.accepting = true
	return s
}

// SetLogger replaces the logger. Call it before Run.
func (s *Service) SetLogger(log logx.Logger) {
	if log.IsZero() {
		return
	}
	s.log = log.With(logx.String("comp", "notifier"))
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled && s.sender != nil
}

// Run drains the queue until ctx ends, then flushes what is already queued
// (bounded by the per-send timeout).
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return errors.New("notifier already running")
	}
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()
	defer close(done)

	for {
		select {
		case n := <-s.queue:
			s.send(ctx, n)
		case <-ctx.Done():
			s.mu.Lock()
			s.accepting = false
			s.mu.Unlock()
			s.drain()
			return nil
		}
	}
}

// sendLast gives n one attempt after the run context is gone.
func (s *Service) sendLast(n Notification) {
	s.mu.Lock()
	timeout := s.cfg.SendTimeout
	s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.sender.SendText(ctx, prefixForPriority(n.Priority)+n.Text); err != nil {
		s.log.Debug("notification dropped on shutdown", logx.Err(err))
	}
}

func (s *Service) drain() {
	for {
		select {
		case n := <-s.queue:
			s.sendLast(n)
		default:
			return
		}
	}
}

// Wait blocks until Run has returned or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify enqueues n without blocking.
func (s *Service) Notify(n Notification) error {
	s.mu.Lock()
	enabled := s.cfg.Enabled && s.sender != nil
	accepting := s.accepting
	s.mu.Unlock()
	if !enabled {
		return ErrDisabled
	}
	if !accepting {
		return ErrStopped
	}
	select {
	case s.queue <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

// Send implements logx.Sink.
func (s *Service) Send(_ context.Context, text string) error {
	return s.Notify(Notification{Priority: 5, Text: text})
}

func (s *Service) send(ctx context.Context, n Notification) {
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	text := prefixForPriority(n.Priority) + n.Text
	attempts := 1 + cfg.RetryMax

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			s.sendLast(n)
			return
		}
		callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
		err := s.sender.SendText(callCtx, text)
		cancel()
		if err == nil {
			return
		}
		lastErr = err
		// logging here must not loop back into the remote sink
		s.log.Debug("notify send failed", logx.Err(err), logx.Int("attempt", attempt), logx.Int("max", attempts))

		if attempt == attempts {
			break
		}
		t := time.NewTimer(retryDelay(cfg, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			s.sendLast(n)
			return
		}
	}
	s.log.Debug("notification dropped after retries", logx.Err(lastErr))
}

func prefixForPriority(p int) string {
	switch {
	case p >= 9:
		return "🚨 "
	case p >= 7:
		return "⚠️ "
	default:
		return ""
	}
}

func retryDelay(cfg Config, attempt int) time.Duration {
	base := cfg.RetryBase
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	maxD := cfg.RetryMaxDelay
	if maxD <= 0 {
		maxD = 10 * time.Second
	}
	d := base
	for i := 1; i < attempt && d < maxD; i++ {
		d *= 2
	}
	// jitter 0.7..1.3
	d = time.Duration(float64(d) * (0.7 + rand.Float64()*0.6))
	return min(d, maxD)
}
