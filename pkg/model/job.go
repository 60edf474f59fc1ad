package model

import "time"

// JobRequest is the payload of an Acquire message: a client asking the
// Arbiter for permission to run a job needing Cores CPUs at Priority.
//
// Cores == 0 means "exclusive, all cores".
type JobRequest struct {
	Cores     int     `json:"cores"`
	Priority  int     `json:"priority"`
	PID       int     `json:"pid"`
	User      string  `json:"user,omitempty"`
	Tag       string  `json:"tag,omitempty"`
	Info      string  `json:"info,omitempty"`
	QueryTime float64 `json:"query_time"`
}

// CoresOf returns the number of cores a request actually claims: MaxCores
// when Cores <= 0 ("exclusive"), otherwise Cores itself.
func CoresOf(req JobRequest, maxCores int) int {
	if req.Cores <= 0 {
		return maxCores
	}
	return req.Cores
}

// QueuedTask is a job request waiting for admission. Owned exclusively by
// the Arbiter's scheduler goroutine; Ready is signalled exactly once, when
// the task is admitted.
type QueuedTask struct {
	ID      uint64
	Request JobRequest
	// seq breaks ties within equal (priority, cores) by insertion order.
	seq   uint64
	Ready chan struct{}
}

// NewQueuedTask constructs a QueuedTask with its one-shot ready signal
// already allocated.
func NewQueuedTask(id uint64, seq uint64, req JobRequest) *QueuedTask {
	return &QueuedTask{ID: id, Request: req, seq: seq, Ready: make(chan struct{})}
}

// Seq returns the task's insertion sequence number, used only to break
// priority/cores ties.
func (t *QueuedTask) Seq() uint64 {
	return t.seq
}

// RunningJob is an admitted task, tracked until its owning session releases
// it or disconnects.
type RunningJob struct {
	ID        uint64
	Request   JobRequest
	StartTime time.Time
}

// CurrentJob is the wire representation of a RunningJob in a StatusAnswer.
type CurrentJob struct {
	ID        uint64     `json:"id"`
	Job       JobRequest `json:"job"`
	StartTime time.Time  `json:"start_time"`
}

// WaitingJob is the wire representation of a QueuedTask in a StatusAnswer.
type WaitingJob struct {
	ID  uint64     `json:"id"`
	Job JobRequest `json:"job"`
}

// StatusAnswer is the reply to a Status request: a consistent snapshot of
// the Arbiter's running and waiting sets, taken during one scheduler turn.
type StatusAnswer struct {
	MaxCores int          `json:"max_cores"`
	Running  []CurrentJob `json:"running"`
	Waiting  []WaitingJob `json:"waiting"`
}
