package arbiter

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/wilke/gowe-arbiter/pkg/model"
)

// Client is a thin wrapper around one Arbiter connection, used by both the
// orchestrator (to hold a core lock for a batch) and the CLI.
type Client struct {
	conn net.Conn
}

// Dial connects to an Arbiter on the loopback port and sends Start.
func Dial(port int, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), timeout)
	if err != nil {
		return nil, fmt.Errorf("dial arbiter on port %d: %w", port, err)
	}
	c := &Client{conn: conn}
	if err := writeSimple(conn, model.MsgStart); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send Start: %w", err)
	}
	return c, nil
}

// Close sends End and closes the connection.
func (c *Client) Close() error {
	_ = writeSimple(c.conn, model.MsgEnd)
	return c.conn.Close()
}

// Acquire sends an Acquire request and blocks until the server replies Go
// or Reject. granted is false when the Arbiter is not accepting; in that
// case Acquire is answered immediately with Reject.
func (c *Client) Acquire(req model.JobRequest) (granted bool, err error) {
	if err := writeAcquire(c.conn, req); err != nil {
		return false, fmt.Errorf("send Acquire: %w", err)
	}
	f, err := ReadFrame(c.conn)
	if err != nil {
		return false, fmt.Errorf("read Acquire reply: %w", err)
	}
	switch f.Kind {
	case model.MsgGo:
		return true, nil
	case model.MsgReject:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected reply to Acquire: %s", f.Kind)
	}
}

// Release sends a Release message, freeing whatever job Acquire granted.
func (c *Client) Release() error {
	return writeSimple(c.conn, model.MsgRelease)
}

// Status requests a consistent snapshot of the Arbiter's state.
func (c *Client) Status() (model.StatusAnswer, error) {
	if err := writeSimple(c.conn, model.MsgStatus); err != nil {
		return model.StatusAnswer{}, fmt.Errorf("send Status: %w", err)
	}
	f, err := ReadFrame(c.conn)
	if err != nil {
		return model.StatusAnswer{}, fmt.Errorf("read StatusAnswer: %w", err)
	}
	if f.Kind != model.MsgStatusAnswer {
		return model.StatusAnswer{}, fmt.Errorf("unexpected reply to Status: %s", f.Kind)
	}
	var ans model.StatusAnswer
	if err := json.Unmarshal(f.Payload, &ans); err != nil {
		return model.StatusAnswer{}, fmt.Errorf("decode StatusAnswer: %w", err)
	}
	return ans, nil
}

// StopAccepting flips the Arbiter's accepting flag to false.
func (c *Client) StopAccepting() error {
	return writeSimple(c.conn, model.MsgStopAccepting)
}
