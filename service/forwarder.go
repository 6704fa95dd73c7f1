package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Aashish23092/ocr-invoice-extraction/dto"
)

// ForwardJob is one record to deliver.
type ForwardJob struct {
	URL       string
	Kind      dto.RecordKind
	Record    any
	RequestID string
}

// Forwarder POSTs finished records to caller supplied URLs in the
// background. Delivery failures are logged and never reach the caller.
type Forwarder struct {
	client  *http.Client
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan ForwardJob
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	onDone func(job ForwardJob, err error)
}

type ForwarderOption func(*Forwarder)

func WithForwardWorkers(n int) ForwarderOption {
	return func(f *Forwarder) {
		if n > 0 {
			f.workers = n
		}
	}
}

func WithForwardQueueSize(n int) ForwarderOption {
	return func(f *Forwarder) {
		if n > 0 {
			f.ch = make(chan ForwardJob, n)
		}
	}
}

func WithForwardTimeout(d time.Duration) ForwarderOption {
	return func(f *Forwarder) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithForwardHTTPClient(c *http.Client) ForwarderOption {
	return func(f *Forwarder) {
		if c != nil {
			f.client = c
		}
	}
}

// withDeliveryHook registers a callback run after every delivery attempt.
func withDeliveryHook(fn func(job ForwardJob, err error)) ForwarderOption {
	return func(f *Forwarder) { f.onDone = fn }
}

func NewForwarder(logger *slog.Logger, opts ...ForwarderOption) *Forwarder {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Forwarder{
		client:  &http.Client{},
		logger:  logger,
		workers: 4,
		timeout: 30 * time.Second,
		ch:      make(chan ForwardJob, 128),
	}
	for _, o := range opts {
		o(f)
	}
	f.start()
	return f
}

func (f *Forwarder) start() {
	f.once.Do(func() {
		for i := 0; i < f.workers; i++ {
			f.wg.Add(1)
			go func(workerID int) {
				defer f.wg.Done()
				for job := range f.ch {
					err := f.deliver(job)
					logger := f.logger.With("worker_id", workerID, "url", job.URL, "kind", job.Kind)
					if job.RequestID != "" {
						logger = logger.With("request_id", job.RequestID)
					}
					if err != nil {
						logger.Error("failed to forward result", "error", err)
					} else {
						logger.Info("result forwarded")
					}
					if f.onDone != nil {
						f.onDone(job, err)
					}
				}
			}(i + 1)
		}
	})
}

// Enqueue schedules a delivery. It returns false without blocking when the
// queue is full or the forwarder is closed.
func (f *Forwarder) Enqueue(job ForwardJob) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		f.logger.Warn("cannot forward: forwarder is shutting down", "url", job.URL)
		return false
	}
	select {
	case f.ch <- job:
		return true
	default:
		f.logger.Warn("forward queue full, dropping result", "url", job.URL, "kind", job.Kind)
		return false
	}
}

func (f *Forwarder) deliver(job ForwardJob) error {
	payload, err := json.Marshal(job.Record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := dto.ValidateRecord(job.Kind, payload); err != nil {
		// The record is still delivered; the receiver decides what to do.
		f.logger.Warn("forwarded record violates schema", "url", job.URL, "kind", job.Kind, "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if job.RequestID != "" {
		req.Header.Set("X-Request-ID", job.RequestID)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post result: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("forward URL returned status %d", resp.StatusCode)
	}
	return nil
}

// Close stops accepting jobs and waits for queued deliveries to finish or
// ctx to expire.
func (f *Forwarder) Close(ctx context.Context) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.ch)
	f.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); f.wg.Wait() }()

	select {
	case <-ctx.Done():
		f.logger.Warn("forwarder shutdown interrupted by context")
	case <-done:
		f.logger.Info("forward queue drained")
	}
}
