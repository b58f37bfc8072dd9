// Package notify fans tracking events out to webhook endpoints.
// Delivery is best-effort and at-most-once: the request path that
// recorded a transition never waits on a webhook, and nothing is
// retried. Losing an alert is acceptable; delaying a tracking response
// is not.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignite/phishsim/internal/domain"
	"github.com/ignite/phishsim/internal/pkg/logger"
)

const defaultQueueSize = 1024

type job struct {
	msg       Message
	kind      domain.NotificationKind
	endpoints []string
}

// Dispatcher queues events and posts them to webhook endpoints from a
// background worker. The queue is bounded; under sustained backlog the
// oldest queued event is dropped to admit the newest.
type Dispatcher struct {
	platformURL string
	timeout     time.Duration
	client      *http.Client

	queue   chan job
	dropped atomic.Int64

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
}

// NewDispatcher creates a dispatcher. platformURL may be empty when no
// global endpoint is configured; queueSize <= 0 uses the default.
func NewDispatcher(platformURL string, timeout time.Duration, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		platformURL: platformURL,
		timeout:     timeout,
		client:      &http.Client{Timeout: timeout},
		queue:       make(chan job, queueSize),
		done:        make(chan struct{}),
	}
}

// Start launches the delivery worker. Idempotent.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		go d.run()
	})
}

// Stop closes the queue and waits for the worker to drain it.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

// Dropped reports how many events have been evicted from a full queue.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// Dispatch enqueues one event for delivery to the platform endpoint
// and, when configured and distinct, the organization endpoint. It
// never blocks: on a full queue the oldest pending event is discarded.
func (d *Dispatcher) Dispatch(event domain.NotificationEvent, orgWebhookURL string) {
	endpoints := resolveEndpoints(d.platformURL, orgWebhookURL)
	if len(endpoints) == 0 {
		return
	}

	j := job{msg: BuildMessage(event), kind: event.Kind, endpoints: endpoints}
	for {
		select {
		case d.queue <- j:
			return
		default:
		}
		// Queue full. Evict the oldest entry and try again.
		select {
		case <-d.queue:
			d.dropped.Add(1)
			logger.Warn("notification queue full, dropped oldest event")
		default:
		}
	}
}

// resolveEndpoints returns the platform endpoint plus the org endpoint
// when it is set and not the same URL, so coinciding configuration
// does not double-deliver.
func resolveEndpoints(platformURL, orgURL string) []string {
	var out []string
	if platformURL != "" {
		out = append(out, platformURL)
	}
	if orgURL != "" && orgURL != platformURL {
		out = append(out, orgURL)
	}
	return out
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for j := range d.queue {
		for _, url := range j.endpoints {
			d.deliver(j, url)
		}
	}
}

// deliver posts to a single endpoint. A failure here is logged and
// isolated; the remaining endpoints for the same event still get their
// attempt, and nothing is retried.
func (d *Dispatcher) deliver(j job, url string) {
	body, err := json.Marshal(j.msg)
	if err != nil {
		logger.Error("marshal notification", "error", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Error("build notification request", "error", err.Error())
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		logger.Warn("notification delivery failed", "kind", string(j.kind), "error", err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("notification rejected", "kind", string(j.kind), "status", resp.StatusCode)
	}
}
