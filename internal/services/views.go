package services

import (
	"context"
	"sync"
	"time"

	"dailydog/internal/metrics"
	"dailydog/internal/models"

	"go.uber.org/zap"
)

const viewWriteTimeout = 5 * time.Second

type viewEvent struct {
	articleID string
	ipHash    string
	userAgent string
	at        time.Time
}

// ViewRecorder writes article views in the background. Recording is best
// effort: a full queue or a failed write loses the view and is only logged.
type ViewRecorder struct {
	views ViewRepository
	log   *zap.Logger
	now   func() time.Time

	queue chan viewEvent
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewViewRecorder starts the writer goroutine. Call Close on shutdown.
func NewViewRecorder(views ViewRepository, queueSize int, log *zap.Logger) *ViewRecorder {
	if queueSize <= 0 {
		queueSize = 1024
	}
	r := &ViewRecorder{
		views: views,
		log:   log,
		now:   time.Now,
		queue: make(chan viewEvent, queueSize),
		done:  make(chan struct{}),
	}
	go r.worker()
	return r
}

// Record queues a view without blocking the caller.
func (r *ViewRecorder) Record(articleID, ipHash, userAgent string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		metrics.RecordView(metrics.StatusDropped)
		return
	}

	ev := viewEvent{articleID: articleID, ipHash: ipHash, userAgent: userAgent, at: r.now()}
	select {
	case r.queue <- ev:
		metrics.ViewQueueDepth.Inc()
	default:
		metrics.RecordView(metrics.StatusDropped)
		r.log.Warn("view queue full, dropping view", zap.String("article_id", articleID))
	}
}

// Close stops accepting views and waits for the queued ones to be written
// until ctx is done.
func (r *ViewRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		r.log.Warn("view recorder stopped before draining", zap.Int("pending", len(r.queue)))
		return ctx.Err()
	}
}

func (r *ViewRecorder) worker() {
	defer close(r.done)
	for ev := range r.queue {
		metrics.ViewQueueDepth.Dec()
		r.write(ev)
	}
}

func (r *ViewRecorder) write(ev viewEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), viewWriteTimeout)
	defer cancel()

	view := &models.View{
		ArticleID: ev.articleID,
		IPHash:    ev.ipHash,
		UserAgent: ev.userAgent,
		CreatedAt: ev.at,
	}
	if err := r.views.Create(ctx, view); err != nil {
		metrics.RecordView(metrics.StatusFailed)
		r.log.Warn("failed to record view", zap.String("article_id", ev.articleID), zap.Error(err))
		return
	}
	metrics.RecordView(metrics.StatusStored)
}
