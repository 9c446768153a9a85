package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/markethub/backend/internal/domain/sync"
	"go.uber.org/zap"
)

const subscriberBuffer = 64

// Subscriber receives change events fanned out by the realtime service.
// The channel is buffered; events are dropped when the subscriber
// falls behind.
type Subscriber struct {
	ID     uuid.UUID
	Events chan sync.ChangeEvent
}

// RealtimeService polls the change feed and fans new events out to
// in-process subscribers. Delivery is best effort: the cursor starts
// at the latest sequence on startup, so events from before the process
// started are never replayed.
type RealtimeService struct {
	feed     sync.ChangeFeedRepository
	interval time.Duration
	batch    int
	logger   *zap.Logger

	mu          stdsync.Mutex
	subscribers map[uuid.UUID]*Subscriber
	cursor      int64
	dropped     int64

	cancel context.CancelFunc
	done   chan struct{}
}

// RealtimeOption configures the realtime service
type RealtimeOption func(*RealtimeService)

// WithPollInterval overrides the default 5s poll interval
func WithPollInterval(d time.Duration) RealtimeOption {
	return func(s *RealtimeService) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithBatchSize overrides how many events one poll fetches
func WithBatchSize(n int) RealtimeOption {
	return func(s *RealtimeService) {
		if n > 0 {
			s.batch = n
		}
	}
}

// NewRealtimeService creates a stopped realtime sync service
func NewRealtimeService(feed sync.ChangeFeedRepository, logger *zap.Logger, opts ...RealtimeOption) *RealtimeService {
	s := &RealtimeService{
		feed:        feed,
		interval:    5 * time.Second,
		batch:       200,
		logger:      logger,
		subscribers: make(map[uuid.UUID]*Subscriber),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the cursor and begins polling
func (s *RealtimeService) Start(ctx context.Context) error {
	latest, err := s.feed.LatestSeq(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cursor = latest
	s.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx)
	s.logger.Info("Realtime sync started",
		zap.Int64("cursor", latest),
		zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels polling and closes all subscriber channels
func (s *RealtimeService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sub := range s.subscribers {
		close(sub.Events)
		delete(s.subscribers, id)
	}
	s.logger.Info("Realtime sync stopped")
}

// Subscribe registers a new subscriber
func (s *RealtimeService) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID:     uuid.New(),
		Events: make(chan sync.ChangeEvent, subscriberBuffer),
	}
	s.mu.Lock()
	s.subscribers[sub.ID] = sub
	s.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscriber and closes its channel
func (s *RealtimeService) Unsubscribe(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub, ok := s.subscribers[id]; ok {
		close(sub.Events)
		delete(s.subscribers, id)
	}
}

// SubscriberCount returns the number of active subscribers
func (s *RealtimeService) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

// DroppedCount returns how many events were dropped on full buffers
func (s *RealtimeService) DroppedCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *RealtimeService) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Poll(ctx)
		}
	}
}

// Poll fetches and fans out events past the cursor. It is exported so
// handlers and tests can force an immediate poll.
func (s *RealtimeService) Poll(ctx context.Context) {
	s.mu.Lock()
	cursor := s.cursor
	s.mu.Unlock()

	events, err := s.feed.FindAfter(ctx, cursor, s.batch)
	if err != nil {
		s.logger.Warn("Change feed poll failed", zap.Error(err))
		return
	}
	if len(events) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		if event.Seq > s.cursor {
			s.cursor = event.Seq
		}
		for _, sub := range s.subscribers {
			select {
			case sub.Events <- event:
			default:
				s.dropped++
			}
		}
	}
}
