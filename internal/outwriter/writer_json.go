package outwriter

import (
	"encoding/json"
	"io"

	"github.com/huangsam/barrace/schema"
)

// jsonFrameWriter writes the frame stream as JSON lines, one FrameState per line.
type jsonFrameWriter struct {
	enc *json.Encoder
}

func newJSONFrameWriter(w io.Writer) *jsonFrameWriter {
	return &jsonFrameWriter{enc: json.NewEncoder(w)}
}

// WriteFrame encodes the frame on its own line.
func (jw *jsonFrameWriter) WriteFrame(frame schema.FrameState) error {
	return jw.enc.Encode(frame)
}

// Close is a no-op; every line is written immediately.
func (jw *jsonFrameWriter) Close() error {
	return nil
}
