// Package arbiter implements the cluster-local job coordination daemon:
// a single scheduler goroutine owns all mutable state, and every
// client session communicates with it only through the scheduler's inbox
// and per-task one-shot ready signals.
package arbiter

import (
	"context"
	"log/slog"
	"time"

	"github.com/wilke/gowe-arbiter/internal/logging"
	"github.com/wilke/gowe-arbiter/pkg/model"
)

// Arbiter is the top-level scheduling interface. Start blocks until the
// daemon auto-shuts-down, Stop is called, or ctx is cancelled.
type Arbiter interface {
	Start(ctx context.Context) error
	Stop()
	// Inbox returns the channel client sessions deliver SchedMsg values to.
	Inbox() chan<- SchedMsg
	// Done is closed when the scheduler has auto-shut-down.
	Done() <-chan struct{}
}

// SchedMsg is the closed set of messages the scheduler goroutine consumes.
// Every mutation of Engine's state happens by processing exactly one of
// these, in delivery order — this is the central invariant of the scheduler.
type SchedMsg struct {
	kind kind

	// Acquire
	request  model.JobRequest
	acquired chan *model.QueuedTask // nil on the reply means Reject

	// Done
	taskID uint64

	// client bookkeeping
	clientDelta int

	// Status
	statusReply chan model.StatusAnswer
}

type kind int

const (
	kindAcquire kind = iota
	kindDone
	kindClientDelta
	kindStatus
	kindStopAccepting
)

// NewAcquireMsg builds a Register message. req is the
// job request; the reply arrives on the returned channel: nil means the
// Arbiter was not accepting and the session must answer Reject, otherwise
// the *QueuedTask's Ready channel fires when the task is admitted.
func NewAcquireMsg(req model.JobRequest) (SchedMsg, <-chan *model.QueuedTask) {
	reply := make(chan *model.QueuedTask, 1)
	return SchedMsg{kind: kindAcquire, request: req, acquired: reply}, reply
}

// NewDoneMsg builds a Done message, releasing the running job with this ID.
func NewDoneMsg(taskID uint64) SchedMsg {
	return SchedMsg{kind: kindDone, taskID: taskID}
}

// NewClientDeltaMsg builds a client-count bookkeeping message: +1 when a
// session starts, -1 when it ends. This is what makes auto-shutdown safe
// against a subtle race: a connected-but-idle client still
// counts even before its first Acquire.
func NewClientDeltaMsg(delta int) SchedMsg {
	return SchedMsg{kind: kindClientDelta, clientDelta: delta}
}

// NewStatusMsg builds a Status message; the reply is a consistent snapshot
// taken during the scheduler's exclusive turn.
func NewStatusMsg() (SchedMsg, <-chan model.StatusAnswer) {
	reply := make(chan model.StatusAnswer, 1)
	return SchedMsg{kind: kindStatus, statusReply: reply}, reply
}

// NewStopAcceptingMsg builds a StopAccepting message.
func NewStopAcceptingMsg() SchedMsg {
	return SchedMsg{kind: kindStopAccepting}
}

// Engine is the concrete, single-goroutine Arbiter implementation.
type Engine struct {
	maxCores int
	logger   *slog.Logger

	inbox chan SchedMsg
	done  chan struct{}
	stop  chan struct{}

	// state, touched only from the goroutine started by Start.
	running    []model.RunningJob
	waiting    *waitQueue
	numClients int
	nextID     uint64
	nextSeq    uint64
	accepting  bool
}

// NewEngine creates an Engine with the given core budget. inboxSize bounds
// how many in-flight client messages can queue before a session's send
// blocks; it has no effect on ordering, only on backpressure.
func NewEngine(maxCores, inboxSize int, logger *slog.Logger) *Engine {
	return &Engine{
		maxCores:  maxCores,
		logger:    logging.Component(logger, "arbiter"),
		inbox:     make(chan SchedMsg, inboxSize),
		done:      make(chan struct{}),
		stop:      make(chan struct{}),
		waiting:   newWaitQueue(maxCores),
		accepting: true,
	}
}

func (e *Engine) Inbox() chan<- SchedMsg { return e.inbox }
func (e *Engine) Done() <-chan struct{}  { return e.done }

// Stop requests the scheduler goroutine to exit. Start returns promptly
// afterward; Stop does not wait for that exit itself, Done does.
func (e *Engine) Stop() {
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

// MaxCores reports the configured core budget, for callers that need it
// outside the goroutine (e.g. to size a client's own request).
func (e *Engine) MaxCores() int { return e.maxCores }

// Start runs the scheduler loop until auto-shutdown, Stop is called,
// or ctx is cancelled. It is meant to be run in its own goroutine; it is
// the only goroutine that ever touches Engine's running/waiting/accepting
// state.
func (e *Engine) Start(ctx context.Context) error {
	defer close(e.done)
	e.logger.Info("arbiter started", "max_cores", e.maxCores)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("arbiter stopping (context cancelled)")
			return ctx.Err()
		case <-e.stop:
			e.logger.Info("arbiter stopping (stop requested)")
			return nil
		case msg := <-e.inbox:
			e.handle(msg)
			if e.shouldShutdown() {
				e.logger.Info("arbiter auto-shutdown: no clients, no jobs")
				return nil
			}
		}
	}
}

func (e *Engine) handle(msg SchedMsg) {
	switch msg.kind {
	case kindAcquire:
		e.handleAcquire(msg)
	case kindDone:
		e.handleDone(msg.taskID)
	case kindClientDelta:
		e.numClients += msg.clientDelta
	case kindStatus:
		msg.statusReply <- e.snapshotStatus()
	case kindStopAccepting:
		e.accepting = false
	}
	// Every message is followed by a run of the admit loop, including
	// Status/StopAccepting/ClientDelta, which never change running/waiting
	// but are harmless to re-check against.
	e.admitLoop()
}

func (e *Engine) handleAcquire(msg SchedMsg) {
	if !e.accepting {
		msg.acquired <- nil
		return
	}
	e.nextID++
	e.nextSeq++
	task := model.NewQueuedTask(e.nextID, e.nextSeq, msg.request)
	e.waiting.push(task)
	msg.acquired <- task
}

// handleDone releases task ID, whether it was already running (the normal
// case: a holder disconnected or sent Release) or still queued (a session
// disconnected between Acquire and Go). If neither, the ID refers to state
// the scheduler no longer has — the open question says not to try to
// reconstruct it, just warn and continue.
func (e *Engine) handleDone(taskID uint64) {
	for i, job := range e.running {
		if job.ID == taskID {
			e.running = append(e.running[:i], e.running[i+1:]...)
			return
		}
	}
	if e.waiting.removeByID(taskID) {
		return
	}
	e.logger.Warn("done: no such running or waiting job", "task_id", taskID)
}

// admitLoop implements the three-step algorithm: peek the
// highest-priority waiter, admit it if capacity allows, repeat.
func (e *Engine) admitLoop() {
	for {
		waiter := e.waiting.peek()
		if waiter == nil {
			return
		}
		need := model.CoresOf(waiter.Request, e.maxCores)
		used := e.usedCores()
		if need > e.maxCores-used {
			return
		}
		e.waiting.popFront()
		job := model.RunningJob{ID: waiter.ID, Request: waiter.Request, StartTime: time.Now()}
		e.running = append(e.running, job)
		close(waiter.Ready)
	}
}

func (e *Engine) usedCores() int {
	used := 0
	for _, job := range e.running {
		used += model.CoresOf(job.Request, e.maxCores)
	}
	return used
}

func (e *Engine) shouldShutdown() bool {
	return len(e.running) == 0 && e.waiting.Len() == 0 && e.numClients == 0
}

func (e *Engine) snapshotStatus() model.StatusAnswer {
	running := make([]model.CurrentJob, len(e.running))
	for i, job := range e.running {
		running[i] = model.CurrentJob{ID: job.ID, Job: job.Request, StartTime: job.StartTime}
	}
	waiting := e.waiting.inPriorityOrder()
	out := make([]model.WaitingJob, len(waiting))
	for i, t := range waiting {
		out[i] = model.WaitingJob{ID: t.ID, Job: t.Request}
	}
	return model.StatusAnswer{MaxCores: e.maxCores, Running: running, Waiting: out}
}
