package hook

import (
	"context"
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"
)

const queueSize = 16

// ResultFunc is told the outcome of every hook run. err is nil on success.
type ResultFunc func(hookName string, event Event, err error)

type job struct {
	hook *Hook
	req  *Request
}

// Runner executes hooks off the caller's goroutine, one at a time, in the
// order events were fired.
type Runner struct {
	manager  *Manager
	executor *Executor
	onResult ResultFunc

	queue  chan job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRunner starts a Runner. onResult may be nil.
func NewRunner(manager *Manager, executor *Executor, onResult ResultFunc) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		manager:  manager,
		executor: executor,
		onResult: onResult,
		queue:    make(chan job, queueSize),
		ctx:      ctx,
		cancel:   cancel,
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

// Fire queues every hook subscribed to event. It never blocks: when the
// queue is full the run is dropped and logged.
func (r *Runner) Fire(event Event, sessionID, exercise string, stats any) {
	hooks := r.manager.ForEvent(event)
	if len(hooks) == 0 {
		return
	}

	statsJSON, err := json.Marshal(stats)
	if err != nil {
		log.WithError(err).Error("hook: marshal stats")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	for _, h := range hooks {
		req := &Request{
			Event:     event,
			SessionID: sessionID,
			Exercise:  exercise,
			Stats:     statsJSON,
		}
		select {
		case r.queue <- job{hook: h, req: req}:
		default:
			log.WithFields(log.Fields{
				"hook":  h.Manifest.Name,
				"event": event,
			}).Warn("hook queue full, dropping run")
		}
	}
}

// Close stops accepting events, cancels a run in progress and waits for the
// worker to exit. Queued runs that have not started are discarded.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

// Drain waits for queued runs to finish, then closes the runner.
func (r *Runner) Drain() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
	r.cancel()
}

func (r *Runner) loop() {
	defer r.wg.Done()

	for j := range r.queue {
		if r.ctx.Err() != nil {
			continue
		}
		r.run(j)
	}
}

func (r *Runner) run(j job) {
	logger := log.WithFields(log.Fields{
		"hook":       j.hook.Manifest.Name,
		"event":      j.req.Event,
		"session_id": j.req.SessionID,
	})

	resp, err := r.executor.Execute(r.ctx, j.hook, j.req)
	if err == nil && !resp.Success {
		err = &ResponseError{Hook: j.hook.Manifest.Name, Message: resp.Error}
	}

	if err != nil {
		logger.WithError(err).Warn("hook failed")
	} else {
		logger.Debug("hook ran")
	}

	if r.onResult != nil {
		r.onResult(j.hook.Manifest.Name, j.req.Event, err)
	}
}

// ResponseError is reported when a hook ran but answered success=false.
type ResponseError struct {
	Hook    string
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return "hook " + e.Hook + " reported failure"
	}
	return "hook " + e.Hook + ": " + e.Message
}
