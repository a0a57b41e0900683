/*package job provides the background worker wrapper bakes run under:
host-polled progress slots, a cooperative stop flag, an explicit
cancellation token (replacing the host's old process-global break flag),
and a registry that enforces one job per (scene, type) slot.
*/
package job

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Token is a shared cancellation flag. A single token is typically
// shared between the pause operator and every running bake, so that any
// external signal turns the worker's next continue into an abort.
type Token struct {
	flag int32
}

// Cancel raises the token.
func (t *Token) Cancel() { atomic.StoreInt32(&t.flag, 1) }

// Cancelled reports whether the token was raised.
func (t *Token) Cancelled() bool { return atomic.LoadInt32(&t.flag) != 0 }

// Reset lowers the token. Workers reset it when they start, as the host
// did with its global break flag.
func (t *Token) Reset() { atomic.StoreInt32(&t.flag, 0) }

// Job carries the externally observed state of one background worker.
// The host polls DoUpdate and Progress on a timer.
type Job struct {
	ID    uuid.UUID
	Name  string
	Type  string
	Start time.Time

	Token *Token

	stop     int32
	doUpdate int32
	progress uint32
}

// New creates a job bound to the given cancellation token.
func New(name, jtype string, tok *Token) *Job {
	if tok == nil {
		tok = &Token{}
	}
	return &Job{
		ID:    uuid.New(),
		Name:  name,
		Type:  jtype,
		Start: time.Now(),
		Token: tok,
	}
}

// Stop requests the job to stop at its next suspension point.
func (j *Job) Stop() { atomic.StoreInt32(&j.stop, 1) }

// Stopped reports whether Stop was called.
func (j *Job) Stopped() bool { return atomic.LoadInt32(&j.stop) != 0 }

// Break reports whether the worker should abort: either its own stop
// flag or the shared token.
func (j *Job) Break() bool { return j.Stopped() || j.Token.Cancelled() }

// SetProgress publishes a progress fraction and flags an update.
func (j *Job) SetProgress(p float32) {
	atomic.StoreUint32(&j.progress, math.Float32bits(p))
	atomic.StoreInt32(&j.doUpdate, 1)
}

// Progress returns the last published fraction.
func (j *Job) Progress() float32 {
	return math.Float32frombits(atomic.LoadUint32(&j.progress))
}

// TakeUpdate consumes the update flag, returning whether one was
// pending. This is the host's redraw trigger.
func (j *Job) TakeUpdate() bool {
	return atomic.SwapInt32(&j.doUpdate, 0) != 0
}

// Elapsed returns seconds since the job started.
func (j *Job) Elapsed() float64 { return time.Since(j.Start).Seconds() }

// Registry runs at most one job per slot key. The key plays the role of
// the host's (scene, job-type) pair.
type Registry struct {
	mu      sync.Mutex
	running map[string]*Job
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{running: make(map[string]*Job)}
}

// Running returns the job occupying key, if any.
func (r *Registry) Running(key string) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[key]
}

// Start claims key for j and runs work on a background goroutine,
// releasing the slot when it returns. It fails if the slot is taken.
func (r *Registry) Start(key string, j *Job, work func()) error {
	r.mu.Lock()
	if other := r.running[key]; other != nil {
		r.mu.Unlock()
		return errors.Errorf("job %q (%s) already running in slot %s",
			other.Name, other.ID, key)
	}
	r.running[key] = j
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			delete(r.running, key)
			r.mu.Unlock()
		}()
		work()
	}()
	return nil
}

// Wait blocks until the slot is free, polling at the host's timer
// granularity. Tests and the blocking exec path use it.
func (r *Registry) Wait(key string) {
	for {
		if r.Running(key) == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
