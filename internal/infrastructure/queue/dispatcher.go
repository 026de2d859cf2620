package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mern-bugtracker/bug-tracker/internal/api/metrics"
	"github.com/mern-bugtracker/bug-tracker/internal/core/domain"
	"github.com/mern-bugtracker/bug-tracker/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes bug activity to a fixed set of workers using consistent
// hashing on the bug id, so entries for one bug are recorded in order.
type Dispatcher struct {
	workers []chan domain.BugActivity
	service ports.ActivityService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.ActivityService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.BugActivity, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.BugActivity, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands an entry to the worker responsible for its bug. A full shard
// drops the entry instead of blocking the request that produced it.
func (d *Dispatcher) Enqueue(activity domain.BugActivity) {
	idx := d.shardIndex(activity.BugID)
	select {
	case d.workers[idx] <- activity:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.ActivityRecordedTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("bug_id", activity.BugID).
			Str("action", string(activity.Action)).
			Int("worker_id", idx).
			Msg("activity queue full, entry dropped")
	}
}

// shardIndex maps a bug id deterministically to a worker index.
func (d *Dispatcher) shardIndex(bugID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(bugID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.BugActivity) {
	defer d.wg.Done()
	depth := metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case activity := <-ch:
			depth.Dec()
			if err := d.service.Record(context.WithoutCancel(ctx), activity); err != nil {
				d.log.Error().Err(err).
					Str("bug_id", activity.BugID).
					Int("worker_id", id).
					Msg("activity recording failed")
			}
		}
	}
}
