package scenario

import (
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/agentic-te/internal/clock"
	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/oklog/ulid/v2"
)

// Dispatcher is the store surface a runner drives. A run only writes while
// the store's reset epoch is the one it started from, so a clear issued on
// the store directly ends the run.
type Dispatcher interface {
	DispatchIf(epoch uint64, a activity.Action) (uint64, error)
	Epoch() uint64
	Clear()
}

// RunInfo describes one scenario invocation.
type RunInfo struct {
	RunID     string        `json:"run_id"`
	Scenario  string        `json:"scenario"`
	Params    Params        `json:"params"`
	Steps     int           `json:"steps"`
	Duration  time.Duration `json:"duration"`
	StartedAt time.Time     `json:"started_at"`
}

// RunStatus reports the progress of the current invocation.
type RunStatus struct {
	Running bool     `json:"running"`
	Run     *RunInfo `json:"run,omitempty"`
	Applied int      `json:"applied"`
	Pending int      `json:"pending"`
}

type run struct {
	info    RunInfo
	batches []batch
	next    int
	applied int
	epoch   uint64
	done    chan struct{}
	over    bool
}

func (r *run) finish() {
	if !r.over {
		r.over = true
		close(r.done)
	}
}

// Runner plays scenario plans against a store. Only one invocation is live
// at a time: starting a run, clearing or closing stops every pending timer
// of the previous one, and a generation check keeps a timer that already
// fired from touching the store.
type Runner struct {
	store   Dispatcher
	catalog *Catalog
	clock   clock.Clock
	logger  *slog.Logger

	mu      sync.Mutex
	entropy io.Reader
	gen     uint64
	timer   clock.Timer
	current *run
	closed  bool
}

// NewRunner creates a runner for one store.
func NewRunner(store Dispatcher, catalog *Catalog, clk clock.Clock, logger *slog.Logger) *Runner {
	if clk == nil {
		clk = clock.New()
	}
	return &Runner{
		store:   store,
		catalog: catalog,
		clock:   clk,
		logger:  logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Catalog returns the scripts this runner plays.
func (r *Runner) Catalog() *Catalog {
	return r.catalog
}

// Run clears the store, applies the script's first steps immediately and
// schedules the rest. It returns without waiting for the scheduled steps.
func (r *Runner) Run(name string, params Params) (RunInfo, error) {
	plan, err := r.catalog.Plan(name, params)
	if err != nil {
		return RunInfo{}, err
	}
	script, _ := r.catalog.Get(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return RunInfo{}, ErrClosed
	}
	r.cancelLocked()
	r.store.Clear()

	now := r.clock.Now()
	current := &run{
		info: RunInfo{
			RunID:     ulid.MustNew(ulid.Timestamp(now), r.entropy).String(),
			Scenario:  name,
			Params:    params.Normalize().withDefaults(script.Defaults),
			Duration:  plan.Duration(),
			StartedAt: now,
		},
		epoch: r.store.Epoch(),
		done:  make(chan struct{}),
	}
	r.current = current

	if plan.IsStatic() {
		current.info.Steps = 1
		r.apply(current, activity.Set(plan.Records()))
		current.applied = 1
		current.finish()
		r.log("scenario applied", current)
		return current.info, nil
	}

	current.batches = plan.batches()
	current.info.Steps = len(plan.steps)
	r.log("scenario started", current)

	if len(current.batches) > 0 && current.batches[0].at <= 0 {
		if !r.applyBatchLocked(current) {
			return current.info, nil
		}
	}
	r.scheduleLocked(current)
	return current.info, nil
}

// Cancel stops pending steps of the current run and leaves the store as is.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked()
}

// Clear cancels the current run and empties the store.
func (r *Runner) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked()
	r.store.Clear()
}

// Close cancels the current run. Later runs fail with ErrClosed.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked()
	r.closed = true
}

// Done returns a channel closed when the current run has applied its last
// step or was cancelled. With no run it is already closed.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return r.current.done
}

// Status reports the current run.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return RunStatus{}
	}
	info := r.current.info
	pending := 0
	for _, b := range r.current.batches[r.current.next:] {
		pending += len(b.actions)
	}
	if r.current.over {
		pending = 0
	}
	return RunStatus{
		Running: !r.current.over,
		Run:     &info,
		Applied: r.current.applied,
		Pending: pending,
	}
}

func (r *Runner) cancelLocked() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.current != nil && !r.current.over {
		r.log("scenario cancelled", r.current)
		r.current.finish()
	}
}

// scheduleLocked arms a timer for the next batch only, so batches apply in
// plan order even when real timers fire late.
func (r *Runner) scheduleLocked(current *run) {
	if current.next >= len(current.batches) {
		current.finish()
		r.log("scenario finished", current)
		return
	}
	elapsed := r.clock.Now().Sub(current.info.StartedAt)
	delay := current.batches[current.next].at - elapsed
	if delay < 0 {
		delay = 0
	}
	gen := r.gen
	r.timer = r.clock.AfterFunc(delay, func() { r.fire(gen) })
}

func (r *Runner) fire(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen || r.closed || r.current == nil {
		return
	}
	r.timer = nil
	if r.applyBatchLocked(r.current) {
		r.scheduleLocked(r.current)
	}
}

// applyBatchLocked applies the next batch. It cancels the run and returns
// false when the store was reset underneath it.
func (r *Runner) applyBatchLocked(current *run) bool {
	b := current.batches[current.next]
	current.next++
	for _, a := range b.actions {
		if !r.apply(current, a) {
			r.cancelLocked()
			return false
		}
		current.applied++
	}
	return true
}

// apply reports false only for a stale epoch. Other rejections are logged
// and the run goes on.
func (r *Runner) apply(current *run, a activity.Action) bool {
	epoch, err := r.store.DispatchIf(current.epoch, a)
	if errors.Is(err, activity.ErrStaleEpoch) {
		return false
	}
	current.epoch = epoch
	if err != nil && r.logger != nil {
		r.logger.Warn("scenario step rejected", "kind", a.Kind, "id", a.ID, "error", err)
	}
	return true
}

func (r *Runner) log(msg string, current *run) {
	if r.logger == nil {
		return
	}
	r.logger.Debug(msg,
		"run_id", current.info.RunID,
		"scenario", current.info.Scenario,
		"applied", current.applied,
		"steps", current.info.Steps,
	)
}
