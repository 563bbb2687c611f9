// Package session runs one live market session: the refresh and news timers,
// the current Dataset, and fan-out to subscribers.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rewired-gh/mandipulse/internal/logger"
	"github.com/rewired-gh/mandipulse/internal/market"
	"github.com/rewired-gh/mandipulse/internal/models"
	"github.com/rewired-gh/mandipulse/internal/monitor"
)

// ErrAlreadyStarted is returned by Start on a running or stopped session.
var ErrAlreadyStarted = errors.New("session already started")

// Notifier delivers out-of-band notifications. Failures are logged, never retried by the session.
type Notifier interface {
	Send(groups []models.AlertGroup) error
	SendError(err error) error
	SendRecovery(failureCount int) error
}

// HistoryRecorder persists one price point per record for every published Dataset.
type HistoryRecorder interface {
	RecordPrices(d models.Dataset, at time.Time) error
}

// NewsSource is a best-effort news provider that always returns something.
type NewsSource interface {
	Latest(ctx context.Context) []models.NewsItem
}

// Config sets the two timer periods.
type Config struct {
	RefreshInterval time.Duration
	NewsInterval    time.Duration
}

// Deps are the collaborators of a session. Only Facade is required.
type Deps struct {
	Facade   *market.Facade
	News     NewsSource
	History  HistoryRecorder
	Monitor  *monitor.Monitor
	Notifier Notifier
}

// Session owns the timers of one market session. Published Datasets are
// shared with every reader and must be treated as read-only.
type Session struct {
	deps Deps
	cfg  Config

	dataset atomic.Pointer[models.Dataset]
	news    atomic.Pointer[[]models.NewsItem]

	mu      sync.Mutex
	subs    map[int]chan models.Dataset
	nextSub int
	stopped bool

	started      atomic.Bool
	cancel       context.CancelFunc
	done         chan struct{}
	lastFailures int
}

func New(deps Deps, cfg Config) *Session {
	return &Session{
		deps: deps,
		cfg:  cfg,
		subs: make(map[int]chan models.Dataset),
		done: make(chan struct{}),
	}
}

// Start publishes the initial Dataset and then starts both timers.
// The timers stop when ctx is cancelled or Stop is called.
func (s *Session) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	ctx, s.cancel = context.WithCancel(ctx)

	logger.Debug("Initializing market session")
	s.publish(s.deps.Facade.Initialize(ctx))

	go s.run(ctx)
	logger.Info("Market session started (refresh: %v, news: %v)", s.cfg.RefreshInterval, s.cfg.NewsInterval)
	return nil
}

// Stop cancels both timers and waits for the session goroutine to exit.
// Subscriber channels are closed.
func (s *Session) Stop() {
	if !s.started.Load() {
		return
	}
	s.cancel()
	<-s.done

	s.mu.Lock()
	s.stopped = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.mu.Unlock()
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	refresh := time.NewTicker(s.cfg.RefreshInterval)
	defer refresh.Stop()
	news := time.NewTicker(s.cfg.NewsInterval)
	defer news.Stop()

	s.refreshNews(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Market session stopped")
			return
		case <-refresh.C:
			s.refresh(ctx)
		case <-news.C:
			s.refreshNews(ctx)
		}
	}
}

// refresh runs one refresh cycle. Only the session goroutine calls it once started.
func (s *Session) refresh(ctx context.Context) {
	start := time.Now()
	next := s.deps.Facade.RefreshCycle(ctx, s.Dataset())
	s.publish(next)
	logger.Debug("Refresh cycle completed in %v (%d records)", time.Since(start), len(next))
}

func (s *Session) refreshNews(ctx context.Context) {
	if s.deps.News == nil {
		return
	}
	items := s.deps.News.Latest(ctx)
	s.news.Store(&items)
	logger.Debug("News refreshed: %d items", len(items))
}

func (s *Session) publish(d models.Dataset) {
	s.dataset.Store(&d)

	if s.deps.History != nil {
		if err := s.deps.History.RecordPrices(d, time.Now()); err != nil {
			logger.Warn("Failed to record price history: %v", err)
		}
	}
	s.evaluateAlerts(d)
	s.reportFeedHealth()
	s.broadcast(d)
}

func (s *Session) evaluateAlerts(d models.Dataset) {
	if s.deps.Monitor == nil {
		return
	}
	triggered, err := s.deps.Monitor.Evaluate(d)
	if err != nil {
		logger.Error("Alert evaluation failed: %v", err)
		return
	}
	if len(triggered) == 0 {
		return
	}
	logger.Info("%d price alerts triggered", len(triggered))
	if s.deps.Notifier == nil {
		return
	}
	if err := s.deps.Notifier.Send(monitor.GroupByCommodity(triggered)); err != nil {
		logger.Error("Failed to send alert notification: %v", err)
	}
}

// reportFeedHealth notifies on the first failure of a run and on recovery.
func (s *Session) reportFeedHealth() {
	st := s.deps.Facade.Status()
	prev := s.lastFailures
	s.lastFailures = st.ConsecutiveFailures

	if st.ConsecutiveFailures > 0 {
		logger.Error("External refresh failed (%d in a row): %s", st.ConsecutiveFailures, st.LastError)
	}
	if s.deps.Notifier == nil {
		return
	}
	switch {
	case st.ConsecutiveFailures == 1:
		if err := s.deps.Notifier.SendError(errors.New(st.LastError)); err != nil {
			logger.Warn("Failed to send error notification: %v", err)
		}
	case st.ConsecutiveFailures == 0 && prev > 0:
		if err := s.deps.Notifier.SendRecovery(prev); err != nil {
			logger.Warn("Failed to send recovery notification: %v", err)
		}
	}
}

// Subscribe returns a channel receiving every published Dataset and a func to
// unsubscribe. A subscriber that is not ready misses that Dataset.
// After Stop the returned channel is already closed.
func (s *Session) Subscribe(buffer int) (<-chan models.Dataset, func()) {
	ch := make(chan models.Dataset, buffer)
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				close(c)
				delete(s.subs, id)
			}
		})
	}
}

func (s *Session) broadcast(d models.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- d:
		default:
			logger.Debug("Subscriber %d is behind, dropping update", id)
		}
	}
}

// Dataset returns the current Dataset, or nil before Start.
func (s *Session) Dataset() models.Dataset {
	if p := s.dataset.Load(); p != nil {
		return *p
	}
	return nil
}

// News returns the latest news items.
func (s *Session) News() []models.NewsItem {
	if p := s.news.Load(); p != nil {
		return *p
	}
	return []models.NewsItem{}
}

// Status reports the feed status of the underlying facade.
func (s *Session) Status() models.FeedStatus {
	return s.deps.Facade.Status()
}
