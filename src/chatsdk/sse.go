package chatsdk

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
)

const (
	// dataPrefix marks the significant lines of the event stream.
	dataPrefix = "data: "
	// doneSentinel terminates the stream; anything buffered after it is
	// discarded.
	doneSentinel = "[DONE]"
)

// Stream is a pull-based sequence of chunks. Read returns io.EOF after the
// last chunk. Close releases the underlying reader and is safe to call at
// any point, including mid-stream abandonment.
type Stream interface {
	Read() (*Chunk, error)
	Close() error
}

// SSEStream parses a text/event-stream shaped response body into chunks.
// Lines are accumulated byte-wise, so multi-byte UTF-8 sequences split
// across network reads decode correctly. Malformed JSON payloads are logged
// and skipped rather than surfaced.
type SSEStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	logger *slog.Logger
	done   bool
	closed bool
}

var _ Stream = (*SSEStream)(nil)

// NewSSEStream wraps body in an SSE chunk parser. The stream owns body and
// closes it on completion, on the [DONE] sentinel, and on Close.
func NewSSEStream(body io.ReadCloser, logger *slog.Logger) *SSEStream {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSEStream{
		body:   body,
		reader: bufio.NewReader(body),
		logger: logger.With("component", "sse_stream"),
	}
}

// Read returns the next chunk, or io.EOF when the stream is exhausted.
func (s *SSEStream) Read() (*Chunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			s.finish()
			return nil, err
		}
		atEOF := err == io.EOF

		// A line still pending at end-of-stream (not newline-terminated)
		// is evaluated under the same rules as a complete one.
		payload, significant := strings.CutPrefix(strings.TrimRight(line, "\r\n"), dataPrefix)
		if significant {
			payload = strings.TrimSpace(payload)
			if payload == doneSentinel {
				s.finish()
				return nil, io.EOF
			}
			if payload != "" {
				var chunk Chunk
				if jsonErr := json.Unmarshal([]byte(payload), &chunk); jsonErr != nil {
					s.logger.Warn("skipping malformed stream payload", "error", jsonErr, "payload", payload)
				} else {
					if atEOF {
						s.finish()
					}
					return &chunk, nil
				}
			}
		}

		if atEOF {
			s.finish()
			return nil, io.EOF
		}
	}
}

// finish marks the stream exhausted and releases the body.
func (s *SSEStream) finish() {
	s.done = true
	s.close()
}

// Close releases the underlying body. Idempotent.
func (s *SSEStream) Close() error {
	s.done = true
	return s.close()
}

func (s *SSEStream) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
