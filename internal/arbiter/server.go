package arbiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/wilke/gowe-arbiter/internal/logging"
)

// Daemon binds the Engine's scheduler to a TCP listener on the loopback
// interface, public contract.
type Daemon struct {
	engine   *Engine
	listener net.Listener
	logger   *slog.Logger
}

// Listen binds a loopback listener on port. Only one daemon per port is
// expected: a second one fails to bind here, and the caller should
// treat that as "a live daemon is already running".
func Listen(port int, maxCores, inboxSize int, logger *slog.Logger) (*Daemon, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", port, err)
	}
	return &Daemon{
		engine:   NewEngine(maxCores, inboxSize, logger),
		listener: lis,
		logger:   logging.Component(logger, "daemon"),
	}, nil
}

// Addr returns the bound listener address.
func (d *Daemon) Addr() net.Addr { return d.listener.Addr() }

// Engine exposes the scheduler engine, mainly for tests that want to drive
// it directly alongside a running listener.
func (d *Daemon) Engine() *Engine { return d.engine }

// Serve runs the scheduler and the accept loop until the scheduler
// auto-shuts-down or ctx is cancelled. It always closes the
// listener before returning.
func (d *Daemon) Serve(ctx context.Context) error {
	defer d.listener.Close()

	schedCtx, cancelSched := context.WithCancel(ctx)
	defer cancelSched()

	schedErr := make(chan error, 1)
	go func() { schedErr <- d.engine.Start(schedCtx) }()

	acceptErr := make(chan error, 1)
	conns := make(chan net.Conn)
	go d.acceptLoop(conns, acceptErr)

	for {
		select {
		case <-d.engine.Done():
			// Auto-shutdown: stop accepting new sessions and
			// report however Start finished.
			d.listener.Close()
			return <-schedErr
		case <-ctx.Done():
			cancelSched()
			<-d.engine.Done()
			return ctx.Err()
		case err := <-acceptErr:
			if errors.Is(err, net.ErrClosed) {
				// Listener closed because of shutdown above; not a
				// real failure.
				<-d.engine.Done()
				return <-schedErr
			}
			// A listener accept error is logged and the loop continues — the
			// accept loop itself keeps running; only the closed-
			// listener case above is terminal.
			d.logger.Error("accept error, continuing", "error", err)
		case conn := <-conns:
			sess := newSession(conn, d.engine.Inbox(), d.logger)
			go d.runSession(sess)
		}
	}
}

// runSession runs one client session, recovering a panic inside it so a bug
// in a single handler closes that session instead of taking the daemon
// down with it.
func (d *Daemon) runSession(sess *session) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("session panic, closing connection", "panic", r, "remote", sess.conn.RemoteAddr())
			sess.conn.Close()
		}
	}()
	sess.serve()
}

func (d *Daemon) acceptLoop(conns chan<- net.Conn, errs chan<- error) {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			errs <- err
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		conns <- conn
	}
}
