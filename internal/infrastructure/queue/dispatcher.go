package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/api/metrics"
	"github.com/carelink/telemedicine/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes change events to a fixed set of workers by hashing the
// appointment ID, so notifications for one appointment are published in the
// order they were enqueued.
type Dispatcher struct {
	workers []chan ports.ChangeEvent
	handler ports.ChangeHandler
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, handler ports.ChangeHandler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ChangeEvent, numWorkers),
		handler: handler,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ChangeEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker owning its appointment. It never
// blocks: when that worker's buffer is full the event is dropped, and open
// chat widgets pick the change up on their next poll.
func (d *Dispatcher) Enqueue(event ports.ChangeEvent) {
	idx := d.shardIndex(event.AppointmentID)
	select {
	case d.workers[idx] <- event:
		metrics.ChangeQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.ChangeErrorsTotal.WithLabelValues(event.Kind).Inc()
		d.log.Warn().
			Str("appointment_id", event.AppointmentID).
			Int("worker_id", idx).
			Msg("change queue full, event dropped")
	}
}

// shardIndex maps an appointment ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(appointmentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(appointmentID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ChangeEvent) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			metrics.ChangeQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.handler.Handle(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("appointment_id", event.AppointmentID).
					Str("kind", event.Kind).
					Int("worker_id", id).
					Msg("change fan-out failed")
			}
		}
	}
}
