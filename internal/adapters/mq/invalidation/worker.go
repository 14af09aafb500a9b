package invalidation

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/AlisDesai/SkillBridge-sub001/internal/adapters/cache"
	"github.com/AlisDesai/SkillBridge-sub001/pkg/logger"
	"github.com/AlisDesai/SkillBridge-sub001/pkg/metrics"
)

// Default worker pool configuration constants.
const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 10 * time.Second
)

// PoolOption applies a configuration option to the Pool.
type PoolOption func(*Pool)

// WithWorkerCount sets the number of draining workers.
func WithWorkerCount(count int) PoolOption {
	return func(p *Pool) {
		if count > 0 {
			p.workerCount = count
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(log logger.Logger) PoolOption {
	return func(p *Pool) {
		if log != nil {
			p.logger = log
		}
	}
}

// Pool drains the invalidation queue with a fixed set of workers, issuing
// prefix deletes against the cache store.
type Pool struct {
	queue       *Queue
	store       cache.Store
	workerCount int
	logger      logger.Logger

	wg sync.WaitGroup
}

// NewPool creates an invalidation worker pool.
func NewPool(queue *Queue, store cache.Store, opts ...PoolOption) *Pool {
	p := &Pool{
		queue:       queue,
		store:       store,
		workerCount: defaultWorkerCount,
		logger:      logger.Get().Named("invalidation"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. They run until the queue closes or ctx is
// canceled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.run(ctx, "invalidation-"+strconv.Itoa(i))
	}
}

func (p *Pool) run(ctx context.Context, name string) {
	defer p.wg.Done()
	log := p.logger.Named(name)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-p.queue.Dequeue():
			if !ok {
				return
			}
			Apply(ctx, p.store, event)
			metrics.RecordInvalidation()
			metrics.UpdateInvalidationQueueSize(p.queue.Len())
			log.Debug(ctx, "invalidated user cache entries",
				logger.String("user_id", event.UserID),
				logger.Int("namespaces", len(event.Namespaces)),
			)
		}
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	select {
	case <-done:
		return nil
	case <-shutdownCtx.Done():
		return fmt.Errorf("invalidation shutdown timed out: %w", shutdownCtx.Err())
	}
}

// Apply performs one invalidation synchronously. It is also the fallback
// path when the queue cannot accept an event.
func Apply(ctx context.Context, store cache.Store, event Event) {
	for _, ns := range event.Namespaces {
		store.DeletePrefix(ctx, cache.UserPrefix(ns, event.UserID))
	}
}
