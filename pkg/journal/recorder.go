package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RecorderConfig contains configuration for the Recorder.
type RecorderConfig struct {
	// Buffer is the capacity of the async write channel.
	// Default: 1024
	Buffer int

	// WriteTimeout bounds each storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// Recorder writes events to storage in a background goroutine. Record never
// blocks: when the buffer is full the event is dropped.
type Recorder struct {
	storage Storage
	config  RecorderConfig
	events  chan *Event
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
	now     func() time.Time

	// mu orders Record's closed check and send against Close, so no event
	// is queued after the worker has drained the channel.
	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
	dropped   atomic.Uint64
	written   atomic.Uint64
	failed    atomic.Uint64
}

// NewRecorder starts a recorder writing to storage.
func NewRecorder(storage Storage, config RecorderConfig, logger *slog.Logger) *Recorder {
	if config.Buffer <= 0 {
		config.Buffer = 1024
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		events:  make(chan *Event, config.Buffer),
		done:    make(chan struct{}),
		logger:  logger.With("component", "journal.recorder"),
		now:     time.Now,
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("journal recorder started", "buffer", config.Buffer)
	return r
}

// Record enqueues an event. A missing ID or time is filled in.
func (r *Recorder) Record(e Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = r.now()
	}

	select {
	case r.events <- &e:
	default:
		if r.dropped.Add(1) == 1 {
			r.logger.Warn("journal buffer full, dropping events",
				"capacity", r.config.Buffer,
			)
		}
	}
}

// Dropped returns how many events were discarded.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Written returns how many events reached storage.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Close stops accepting events, writes whatever is buffered and waits for
// the worker to exit. It does not close the storage.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		close(r.done)
		r.wg.Wait()
		r.logger.Debug("journal recorder stopped",
			"written", r.written.Load(),
			"dropped", r.dropped.Load(),
			"failed", r.failed.Load(),
		)
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case e := <-r.events:
			r.write(e)
		case <-r.done:
			for {
				select {
				case e := <-r.events:
					r.write(e)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(e *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, e); err != nil {
		r.failed.Add(1)
		r.logger.Error("failed to write journal event",
			"event_id", e.ID,
			"experiment", e.ExperimentID,
			"error", err,
		)
		return
	}
	r.written.Add(1)
}
