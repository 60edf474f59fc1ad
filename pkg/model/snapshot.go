package model

import "time"

// RawOutcome is the wire representation of a Result's raw process data
// inside a Snapshot event, Event.raw.
type RawOutcome struct {
	Stdout  string  `json:"stdout"`
	Stderr  string  `json:"stderr"`
	ErrCode int     `json:"errcode"`
	RTime   float64 `json:"rtime"`
	UTime   float64 `json:"utime"`
	STime   float64 `json:"stime"`
}

// Event is one classified run inside a Snapshot.
type Event struct {
	Program Prover         `json:"program"`
	Problem Problem        `json:"problem"`
	Res     Classification `json:"res"`
	Raw     RawOutcome     `json:"raw"`
}

// EventFromResult converts an Executor Result into its Snapshot wire form.
func EventFromResult(r Result) Event {
	return Event{
		Program: r.Prover,
		Problem: r.Problem,
		Res:     r.Classification,
		Raw: RawOutcome{
			Stdout:  r.Stdout,
			Stderr:  r.Stderr,
			ErrCode: r.ErrCode,
			RTime:   r.RealTime,
			UTime:   r.UserTime,
			STime:   r.SysTime,
		},
	}
}

// Snapshot is an immutable, UUID-identified bundle of Events produced by
// one orchestrator batch.
type Snapshot struct {
	UUID      string  `json:"uuid"`
	Timestamp float64 `json:"timestamp"`
	Meta      string  `json:"meta,omitempty"`
	Events    []Event `json:"events"`
}

// NewSnapshot builds a Snapshot from a batch of events, stamping it with
// the given uuid and timestamp (supplied by the caller rather than
// computed here, since time.Now/uuid generation belong at the edges).
func NewSnapshot(uuid string, timestamp time.Time, meta string, events []Event) Snapshot {
	return Snapshot{
		UUID:      uuid,
		Timestamp: float64(timestamp.UnixNano()) / 1e9,
		Meta:      meta,
		Events:    events,
	}
}
