package arbiter

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/wilke/gowe-arbiter/pkg/model"
)

// Frame is one message on the wire: a kind tag plus an optional JSON
// payload. Encoding is symmetric between client and server: a 4-byte
// big-endian length prefix covers the kind byte and payload together, so a
// reader never has to guess where one frame ends and the next begins.
type Frame struct {
	Kind    model.MessageKind
	Payload json.RawMessage
}

const maxFrameSize = 4 << 20 // 4MiB; generous for Acquire/StatusAnswer payloads

// WriteFrame encodes and writes one frame.
func WriteFrame(w io.Writer, f Frame) error {
	body := make([]byte, 1+len(f.Payload))
	body[0] = byte(f.Kind)
	copy(body[1:], f.Payload)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))

	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads and decodes one frame.
func ReadFrame(r io.Reader) (Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Frame{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return Frame{}, fmt.Errorf("empty frame")
	}
	if n > maxFrameSize {
		return Frame{}, fmt.Errorf("frame too large: %d bytes", n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, fmt.Errorf("read frame body: %w", err)
	}

	f := Frame{Kind: model.MessageKind(body[0])}
	if len(body) > 1 {
		f.Payload = json.RawMessage(body[1:])
	}
	return f, nil
}

// encodePayload marshals v to JSON, panicking only on programmer error
// (v containing an unmarshalable type), matching the rest of the model
// package's use of json.Marshal on plain data structs.
func encodePayload(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("arbiter: marshal payload: %v", err))
	}
	return b
}

// writeSimple writes a frame with no payload (Start, End, Release, Status,
// StopAccepting, Go, Reject).
func writeSimple(w io.Writer, kind model.MessageKind) error {
	return WriteFrame(w, Frame{Kind: kind})
}

func writeAcquire(w io.Writer, req model.JobRequest) error {
	return WriteFrame(w, Frame{Kind: model.MsgAcquire, Payload: encodePayload(req)})
}

func writeStatusAnswer(w io.Writer, ans model.StatusAnswer) error {
	return WriteFrame(w, Frame{Kind: model.MsgStatusAnswer, Payload: encodePayload(ans)})
}
