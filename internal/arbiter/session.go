package arbiter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"

	"github.com/wilke/gowe-arbiter/internal/logging"
	"github.com/wilke/gowe-arbiter/pkg/model"
)

// sessionState is the client-session state machine.
type sessionState int

const (
	stateOpen sessionState = iota
	stateAwaitingGo
	stateHolding
)

// session drives one client connection. It never touches Engine state
// directly — it only delivers SchedMsg values to the inbox and waits on
// the per-task Ready signal, "no shared mutable state between
// client sessions" invariant.
type session struct {
	conn   net.Conn
	inbox  chan<- SchedMsg
	logger *slog.Logger

	state    sessionState
	awaiting *model.QueuedTask // set while stateAwaitingGo
	holding  *model.QueuedTask // set while stateHolding
}

func newSession(conn net.Conn, inbox chan<- SchedMsg, logger *slog.Logger) *session {
	return &session{
		conn:   conn,
		inbox:  inbox,
		logger: logging.Component(logger, "session").With("remote", conn.RemoteAddr().String()),
		state:  stateOpen,
	}
}

// serve runs the session to completion: it blocks until the connection is
// closed, a protocol error occurs, or an End message is received. It always
// cleans up whatever the session held or had queued before returning.
func (s *session) serve() {
	defer s.cleanup()
	defer s.conn.Close()

	s.inbox <- NewClientDeltaMsg(+1)
	defer func() { s.inbox <- NewClientDeltaMsg(-1) }()

	frames := make(chan Frame)
	readErr := make(chan error, 1)
	stopReader := make(chan struct{})
	defer close(stopReader)
	go func() {
		for {
			f, err := ReadFrame(s.conn)
			if err != nil {
				select {
				case readErr <- err:
				case <-stopReader:
				}
				return
			}
			select {
			case frames <- f:
			case <-stopReader:
				return
			}
		}
	}()

	if !s.expectStart(frames, readErr) {
		return
	}

	for {
		var readyCh <-chan struct{}
		if s.state == stateAwaitingGo {
			readyCh = s.awaiting.Ready
		}

		select {
		case err := <-readErr:
			s.logger.Debug("session closed", "reason", err)
			return
		case f := <-frames:
			if !s.handleFrame(f) {
				return
			}
		case <-readyCh:
			task := s.awaiting
			s.awaiting = nil
			s.state = stateHolding
			s.holding = task
			if err := writeSimple(s.conn, model.MsgGo); err != nil {
				s.logger.Debug("write Go failed", "error", err)
				return
			}
		}
	}
}

func (s *session) expectStart(frames <-chan Frame, readErr <-chan error) bool {
	select {
	case err := <-readErr:
		s.logger.Debug("session closed before Start", "reason", err)
		return false
	case f := <-frames:
		if f.Kind != model.MsgStart {
			s.protocolError(fmt.Errorf("expected Start, got %s", f.Kind))
			return false
		}
		return true
	}
}

// handleFrame processes one client frame against the current state.
// It returns false when the session should close.
func (s *session) handleFrame(f Frame) bool {
	switch s.state {
	case stateOpen:
		return s.handleOpen(f)
	case stateAwaitingGo:
		s.protocolError(fmt.Errorf("unexpected %s while awaiting Go", f.Kind))
		return false
	case stateHolding:
		return s.handleHolding(f)
	default:
		return false
	}
}

func (s *session) handleOpen(f Frame) bool {
	switch f.Kind {
	case model.MsgAcquire:
		var req model.JobRequest
		if err := json.Unmarshal(f.Payload, &req); err != nil {
			s.protocolError(fmt.Errorf("decode Acquire: %w", err))
			return false
		}
		msg, reply := NewAcquireMsg(req)
		s.inbox <- msg
		task := <-reply
		if task == nil {
			return s.writeOrClose(model.MsgReject)
		}
		s.state = stateAwaitingGo
		s.awaiting = task
		return true
	case model.MsgStatus:
		msg, reply := NewStatusMsg()
		s.inbox <- msg
		ans := <-reply
		if err := writeStatusAnswer(s.conn, ans); err != nil {
			s.logger.Debug("write StatusAnswer failed", "error", err)
			return false
		}
		return true
	case model.MsgStopAccepting:
		s.inbox <- NewStopAcceptingMsg()
		return true
	case model.MsgEnd:
		return false
	default:
		s.protocolError(fmt.Errorf("unexpected %s in OPEN", f.Kind))
		return false
	}
}

func (s *session) handleHolding(f Frame) bool {
	switch f.Kind {
	case model.MsgRelease:
		s.inbox <- NewDoneMsg(s.holding.ID)
		s.holding = nil
		s.state = stateOpen
		return true
	case model.MsgEnd:
		// Disconnecting while HOLDING implicitly releases; an
		// explicit End does the same before closing.
		return false
	default:
		s.protocolError(fmt.Errorf("unexpected %s while HOLDING", f.Kind))
		return false
	}
}

func (s *session) writeOrClose(kind model.MessageKind) bool {
	if err := writeSimple(s.conn, kind); err != nil {
		s.logger.Debug("write failed", "error", err)
		return false
	}
	return true
}

func (s *session) protocolError(err error) {
	s.logger.Warn("protocol error, closing session", "error", err)
}

// cleanup releases whatever this session held or had queued, per the
// failure semantics: a dropped connection in any state is
// treated as End, plus Release if it was HOLDING or still queued.
func (s *session) cleanup() {
	switch s.state {
	case stateHolding:
		s.inbox <- NewDoneMsg(s.holding.ID)
	case stateAwaitingGo:
		s.inbox <- NewDoneMsg(s.awaiting.ID)
	}
}
