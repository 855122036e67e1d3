package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atrium-controls/storage-bridge/internal/infrastructure/logging"
)

// progressLogInterval is the received-message count between progress log
// lines.
const progressLogInterval = 10

// Sink is the boundary to the external time-series store.
//
// InsertReading persists one reading; the implementation bounds the write
// with its own timeout. Reconnect reestablishes the underlying connection
// after a write failure so the next write has a chance of succeeding — it
// does not retry the failed write.
type Sink interface {
	InsertReading(ctx context.Context, r Reading) error
	Reconnect(ctx context.Context) error
}

// Stats are the process-lifetime pipeline counters. Monotonically
// increasing; reset only by process restart.
type Stats struct {
	Received uint64
	Written  uint64
	Errors   uint64
}

// Pipeline is the callback-driven per-message path tying the dedup cache,
// the payload transformer, and the storage sink together.
//
// Thread Safety:
//   - HandleMessage is intended for the transport's single delivery
//     goroutine, but all shared state is guarded, so concurrent use is
//     safe. Stats may be read from any goroutine.
type Pipeline struct {
	sink Sink
	log  *logging.Logger

	mu    sync.Mutex
	dedup *dedupCache

	received atomic.Uint64
	written  atomic.Uint64
	errors   atomic.Uint64

	// now is the wall clock, replaced in tests.
	now func() time.Time
}

// NewPipeline creates a Pipeline writing to sink.
func NewPipeline(sink Sink, log *logging.Logger) *Pipeline {
	return &Pipeline{
		sink:  sink,
		log:   log,
		dedup: newDedupCache(dedupCapacity, dedupEvictBatch),
		now:   time.Now,
	}
}

// HandleMessage processes one inbound message end to end.
//
// Failure semantics: a malformed payload or failed write drops that one
// message — counted and logged, never retried — and the returned error is
// always nil so the transport does not re-log what the pipeline already
// reported.
func (p *Pipeline) HandleMessage(topic string, data []byte) error {
	received := p.received.Add(1)

	pl, err := parsePayload(data)
	if err != nil {
		p.errors.Add(1)
		p.log.Error("invalid JSON in message", "topic", topic, "error", err)
		return nil
	}

	now := p.now().UTC()
	ts := pl.eventTime(now)

	key := dedupKey{name: pl.canonicalName(), second: pl.dedupSecond(ts)}
	p.mu.Lock()
	if p.dedup.Seen(key) {
		p.mu.Unlock()
		return nil
	}
	p.dedup.Add(key)
	p.mu.Unlock()

	reading := pl.toReading(ts)

	// No per-message cancellation: shutdown is process-level, and the
	// sink bounds the write with its own timeout.
	ctx := context.Background()
	if err := p.sink.InsertReading(ctx, reading); err != nil {
		p.errors.Add(1)
		p.log.Error("failed to write reading",
			"haystack_name", reading.HaystackName,
			"error", err,
		)
		if rerr := p.sink.Reconnect(ctx); rerr != nil {
			p.log.Error("storage reconnect failed", "error", rerr)
		}
	} else {
		p.written.Add(1)
	}

	if received%progressLogInterval == 0 {
		s := p.Stats()
		p.log.Info("pipeline stats",
			"received", s.Received,
			"written", s.Written,
			"errors", s.Errors,
		)
	}

	return nil
}

// Stats returns a snapshot of the running counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Received: p.received.Load(),
		Written:  p.written.Load(),
		Errors:   p.errors.Load(),
	}
}

// DedupLen returns the current size of the suppression window. Exposed
// for monitoring.
func (p *Pipeline) DedupLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dedup.Len()
}
