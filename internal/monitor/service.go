// Package monitor runs the per-second activity loop and exposes the read
// interface over what it has stored.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/vigil/internal/aggregate"
	"github.com/alexanderramin/vigil/internal/anticheat"
	"github.com/alexanderramin/vigil/internal/config"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/repository"
	"github.com/alexanderramin/vigil/internal/sensor"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// Health is the storage-facing status surfaced to the API.
type Health struct {
	Status                   string               `json:"status"`
	RunID                    string               `json:"run_id"`
	State                    domain.ActivityState `json:"state"`
	LastTick                 *time.Time           `json:"last_tick,omitempty"`
	ConsecutiveWriteFailures int                  `json:"consecutive_write_failures"`
}

// Reader is the read interface offered to collaborators. Reads go through
// the store, never through the loop's in-memory log.
type Reader interface {
	GetDay(ctx context.Context, date domain.Date) (*domain.DailyLog, error)
	GetRange(ctx context.Context, start, end domain.Date) (domain.DateRangeSummary, error)
	GetConfig() config.Snapshot
	Health() Health
	Subscribe() (<-chan struct{}, func())
}

// Option configures a Service.
type Option func(*Service)

// WithCapturer enables screenshot capture.
func WithCapturer(c Capturer) Option {
	return func(s *Service) { s.capturer = c }
}

// WithObservers adds tick observers.
func WithObservers(observers ...TickObserver) Option {
	return func(s *Service) { s.observer = tickObserverOrNoop(observers) }
}

type captureResult struct {
	at   time.Time
	path string
	sus  bool
	err  error
}

// Service owns the day's DailyLog and is the only writer of the store.
// Step and Run must be called from one goroutine; the read methods are safe
// from any goroutine.
type Service struct {
	repo       repository.DailyLogRepo
	source     sensor.Source
	engine     *aggregate.Engine
	classifier *Classifier
	notifier   *Notifier
	observer   TickObserver
	capturer   Capturer
	policy     CapturePolicy
	captures   chan captureResult
	stopped    chan struct{}
	stopOnce   sync.Once
	runID      string

	cfg atomic.Pointer[config.Config]

	log      *domain.DailyLog
	pending  []*domain.DailyLog
	lastTick time.Time
	failures int

	healthMu sync.RWMutex
	health   Health
}

// NewService builds a Service. source may be nil for a read-only service.
func NewService(cfg config.Config, repo repository.DailyLogRepo, source sensor.Source, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		source:     source,
		engine:     aggregate.NewEngine(repo),
		classifier: NewClassifier(anticheat.New(cfg.AntiCheat)),
		notifier:   NewNotifier(),
		observer:   NoopTickObserver{},
		captures:   make(chan captureResult, 8),
		stopped:    make(chan struct{}),
		runID:      uuid.NewString(),
	}
	s.cfg.Store(&cfg)
	for _, opt := range opts {
		opt(s)
	}
	s.health = Health{Status: HealthOK, RunID: s.runID, State: domain.StateOffHours}
	return s
}

func (s *Service) RunID() string { return s.runID }

// Config returns the active configuration.
func (s *Service) Config() config.Config { return *s.cfg.Load() }

// SetConfig swaps the active configuration. It takes effect on the next
// tick.
func (s *Service) SetConfig(cfg config.Config) {
	s.cfg.Store(&cfg)
	log.Info().Str("event", "config_applied").
		Str("office_hours", cfg.OfficeHours.Start.String()+"-"+cfg.OfficeHours.End.String()).
		Int("idle_threshold_seconds", cfg.IdleThresholdSeconds).
		Msg("configuration updated")
}

func (s *Service) GetDay(ctx context.Context, date domain.Date) (*domain.DailyLog, error) {
	return s.repo.Load(ctx, date)
}

func (s *Service) GetRange(ctx context.Context, start, end domain.Date) (domain.DateRangeSummary, error) {
	return s.engine.Summarize(ctx, start, end)
}

func (s *Service) GetConfig() config.Snapshot {
	return s.cfg.Load().Snapshot()
}

func (s *Service) Health() Health {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	h := s.health
	if h.LastTick != nil {
		t := *h.LastTick
		h.LastTick = &t
	}
	return h
}

func (s *Service) Subscribe() (<-chan struct{}, func()) {
	return s.notifier.Subscribe()
}

// Run processes ticks until ctx is done or ticks closes, then flushes the
// current log with its interval pointers as they are. It returns
// ErrPersistentStorageFailure when writes keep failing.
func (s *Service) Run(ctx context.Context, ticks <-chan time.Time) error {
	log.Info().Str("event", "monitor_started").Str("run_id", s.runID).Msg("activity monitor running")
	for {
		select {
		case <-ctx.Done():
			return s.Shutdown(context.WithoutCancel(ctx))
		case now, ok := <-ticks:
			if !ok {
				return s.Shutdown(context.WithoutCancel(ctx))
			}
			if _, err := s.Step(ctx, now); err != nil {
				if shutErr := s.Shutdown(context.WithoutCancel(ctx)); shutErr != nil {
					log.Error().Err(shutErr).Msg("final flush failed")
				}
				return err
			}
		}
	}
}

// Step applies one tick at now. A tick for a second that was already
// processed is skipped, so no second is applied twice.
func (s *Service) Step(ctx context.Context, now time.Time) (TickOutcome, error) {
	now = now.Truncate(time.Second)
	if !s.lastTick.IsZero() && !now.After(s.lastTick) {
		return TickOutcome{At: now, Skipped: true, State: s.classifier.State()}, nil
	}
	started := time.Now()
	cfg := s.cfg.Load()

	if err := s.ensureLog(ctx, now, *cfg); err != nil {
		out := TickOutcome{At: now, State: s.classifier.State()}
		return out, s.recordFailure(*cfg, err)
	}
	s.lastTick = now

	sample := sensor.Unavailable(fmt.Errorf("%w: no input source", sensor.ErrUnavailable))
	if s.source != nil {
		var err error
		sample, err = s.source.Sample(ctx, now)
		if err != nil {
			sample = sensor.Unavailable(err)
		}
	}

	out := s.classifier.Apply(s.log, *cfg, now, sample)
	if out.SensorErr != nil && out.InOfficeHours {
		log.Warn().Str("event", "sensor_unavailable").Time("tick", now).Err(out.SensorErr).
			Msg("input unreadable, counting tick as idle")
	}
	if s.collectCaptures() {
		out.Mutated = true
	}
	s.maybeCapture(ctx, &out, *cfg)

	persisted := false
	var err error
	if out.Mutated {
		persisted, err = s.persist(ctx, *cfg)
	}
	s.updateHealth(out)
	s.observer.ObserveTick(ctx, TickEvent{
		Outcome:   out,
		Duration:  time.Since(started),
		Persisted: persisted,
		Err:       err,
	})
	return out, err
}

// Shutdown records any open suspicious span and writes the current log. The
// interval pointers are stored as they are so a restart can resume them.
func (s *Service) Shutdown(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopped) })
	if s.log == nil {
		return nil
	}
	s.classifier.FlushSpan(s.log)
	s.collectCaptures()
	cfg := s.cfg.Load()
	if _, err := s.persist(ctx, *cfg); err != nil {
		return err
	}
	if s.failures > 0 {
		return fmt.Errorf("%w: final flush failed", repository.ErrWriteFailed)
	}
	log.Info().Str("event", "monitor_stopped").Str("run_id", s.runID).Msg("activity monitor stopped")
	return nil
}

// ensureLog makes s.log the log for now's date, loading it on first use and
// closing out the previous day on rollover.
func (s *Service) ensureLog(ctx context.Context, now time.Time, cfg config.Config) error {
	date := domain.DateOf(now)
	if s.log != nil && s.log.Date == date {
		return nil
	}
	l, err := s.repo.Load(ctx, date)
	if err != nil {
		return fmt.Errorf("loading %s: %w", date, err)
	}
	if s.log != nil {
		s.classifier.Detach(s.log)
		s.collectCaptures()
		s.pending = append(s.pending, s.log)
	}
	s.log = l
	s.classifier.Attach(l, now, cfg.ResumeGap())
	return nil
}

// persist writes pending rolled-over logs together with the current log,
// retrying once. A failure keeps everything in memory for the next tick.
func (s *Service) persist(ctx context.Context, cfg config.Config) (bool, error) {
	batch := make([]*domain.DailyLog, 0, len(s.pending)+1)
	batch = append(batch, s.pending...)
	batch = append(batch, s.log)
	if err := s.saveWithRetry(ctx, batch); err != nil {
		return false, s.recordFailure(cfg, err)
	}
	s.pending = nil
	s.failures = 0
	s.notifier.Notify()
	return true, nil
}

func (s *Service) saveWithRetry(ctx context.Context, batch []*domain.DailyLog) error {
	err := s.repo.SaveAll(ctx, batch...)
	if err == nil {
		return nil
	}
	log.Error().Str("event", "storage_write_failure").Str("date", s.log.Date.String()).
		Int("logs", len(batch)).Int("attempt", 1).Err(err).Msg("daily log write failed, retrying")
	return s.repo.SaveAll(ctx, batch...)
}

func (s *Service) recordFailure(cfg config.Config, err error) error {
	s.failures++
	log.Error().Str("event", "storage_write_failure").
		Int("consecutive_failures", s.failures).Err(err).
		Msg("daily log not stored, keeping it in memory")
	s.healthMu.Lock()
	s.health.Status = HealthDegraded
	s.health.ConsecutiveWriteFailures = s.failures
	s.healthMu.Unlock()
	if s.failures >= cfg.Storage.MaxWriteFailures {
		return fmt.Errorf("%w: %d consecutive failures: %v", ErrPersistentStorageFailure, s.failures, err)
	}
	return nil
}

func (s *Service) updateHealth(out TickOutcome) {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	at := out.At
	s.health.LastTick = &at
	s.health.State = out.State
	s.health.ConsecutiveWriteFailures = s.failures
	if s.failures == 0 {
		s.health.Status = HealthOK
	} else {
		s.health.Status = HealthDegraded
	}
}

// maybeCapture starts a capture in the background when the policy fires.
// The result is recorded on a later tick by collectCaptures.
func (s *Service) maybeCapture(ctx context.Context, out *TickOutcome, cfg config.Config) {
	if s.capturer == nil || !s.policy.Due(*out, cfg.ScreenshotInterval()) {
		return
	}
	s.policy.Fired(out.At)
	at, sus := out.At, out.Verdict.Suspicious
	go func() {
		path, err := s.capturer.Capture(ctx, at)
		s.deliver(ctx, captureResult{at: at, path: path, sus: sus, err: err})
	}()
}

// deliver hands a finished capture to the tick loop. It gives up once the
// loop is gone, so a slow capture never outlives the service blocked.
func (s *Service) deliver(ctx context.Context, res captureResult) bool {
	select {
	case s.captures <- res:
		return true
	case <-ctx.Done():
		return false
	case <-s.stopped:
		return false
	}
}

// collectCaptures appends finished captures to the current log.
func (s *Service) collectCaptures() bool {
	added := false
	for {
		select {
		case res := <-s.captures:
			if res.err != nil {
				log.Warn().Str("event", "screenshot_failed").Time("at", res.at).Err(res.err).Msg("screenshot capture failed")
				continue
			}
			if s.log == nil || domain.DateOf(res.at) != s.log.Date {
				continue
			}
			s.log.Screenshots = append(s.log.Screenshots, domain.ScreenshotRecord{
				Time: res.at, Path: res.path, Suspicious: res.sus,
			})
			added = true
		default:
			return added
		}
	}
}
