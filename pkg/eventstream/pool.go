package eventstream

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	defaultNumWorkers     uint = 2
	defaultJobQueueSize   uint = 64
	defaultPublishTimeout      = 5 * time.Second
)

// PoolConfig is the configuration options for the publish pool.
type PoolConfig struct {
	// Publisher is the underlying sink for turn events.
	Publisher Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered event channel (defaults to 64).
	QueueSize uint

	// PublishTimeout bounds each underlying publish call.
	PublishTimeout time.Duration

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool publishes turn events asynchronously via a worker pool so slow or
// unreachable brokers never block the interactive prompt loop.
type Pool struct {
	config *PoolConfig
	queue  chan *TurnCompletedEvent
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *PoolConfig) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.PublishTimeout == 0 {
		c.PublishTimeout = defaultPublishTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	p := &Pool{
		config: c,
		queue:  make(chan *TurnCompletedEvent, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits an event for publishing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the event being dropped
func (p *Pool) Enqueue(event *TurnCompletedEvent) bool {
	select {
	case p.queue <- event:
		p.logger.Debug("turn event queued",
			zap.String("event_id", event.EventID),
			zap.String("session_id", event.Turn.SessionID),
		)
		return true
	default:
		p.logger.Error("turn event not queued, queue full, event dropped",
			zap.String("event_id", event.EventID),
			zap.String("session_id", event.Turn.SessionID),
		)
		return false
	}
}

// Close signals workers to stop, waits for in-flight publishes to drain,
// and closes the underlying publisher.
func (p *Pool) Close() error {
	close(p.queue)
	p.wg.Wait()
	return p.config.Publisher.Close()
}

// worker is the inner worker thread that continuously pulls events off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("publish worker started", zap.Uint("worker_id", id))

	for event := range p.queue {
		p.publish(event)
	}

	p.logger.Debug("publish worker stopped", zap.Uint("worker_id", id))
}

func (p *Pool) publish(event *TurnCompletedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.PublishTimeout)
	defer cancel()

	if err := p.config.Publisher.PublishTurn(ctx, event); err != nil {
		p.logger.Error("async turn publish failed",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		return
	}

	p.logger.Debug("turn event published",
		zap.String("event_id", event.EventID),
		zap.String("session_id", event.Turn.SessionID),
	)
}
