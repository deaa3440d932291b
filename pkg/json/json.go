// Package json wraps goccy/go-json with pooled buffers and a streaming
// encoder for printing rows one at a time.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

const maxPooledBuffer = 1 << 20

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for encoding/json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for encoding/json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalToWriter encodes v into a pooled buffer and writes it to w in one
// call. A non-empty indent pretty-prints.
func MarshalToWriter(w io.Writer, v interface{}, indent string) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// StreamingEncoder writes values one after another, either as the
// elements of one JSON array or as newline-delimited JSON
type StreamingEncoder struct {
	writer  io.Writer
	buf     *bytes.Buffer
	encoder *gojson.Encoder
	first   bool
	isArray bool
	err     error
}

// NewStreamingEncoder creates a streaming encoder. Close must be called to
// finish the array and release the buffer.
func NewStreamingEncoder(w io.Writer, isArray bool) *StreamingEncoder {
	buf := GetBuffer()
	enc := gojson.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	se := &StreamingEncoder{writer: w, buf: buf, encoder: enc, first: true, isArray: isArray}
	if isArray {
		buf.WriteByte('[')
	}
	return se
}

// Encode appends one value, flushing the buffer once it grows large
func (se *StreamingEncoder) Encode(v interface{}) error {
	if se.err != nil {
		return se.err
	}
	if se.isArray && !se.first {
		se.buf.WriteByte(',')
	}
	se.first = false
	if err := se.encoder.Encode(v); err != nil {
		se.err = err
		return err
	}
	if se.buf.Len() >= 64*1024 {
		return se.flush()
	}
	return nil
}

func (se *StreamingEncoder) flush() error {
	if _, err := se.writer.Write(se.buf.Bytes()); err != nil {
		se.err = err
		return err
	}
	se.buf.Reset()
	return nil
}

// Close finishes the output
func (se *StreamingEncoder) Close() error {
	if se.buf == nil {
		return se.err
	}
	defer func() {
		PutBuffer(se.buf)
		se.buf = nil
	}()
	if se.err != nil {
		return se.err
	}
	if se.isArray {
		se.buf.WriteString("]\n")
	}
	return se.flush()
}
