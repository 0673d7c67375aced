package chatsdk

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackedBody wraps a reader and records Close calls.
type trackedBody struct {
	io.Reader
	closed int
}

func (b *trackedBody) Close() error {
	b.closed++
	return nil
}

// byteAtATimeReader returns a single byte per Read call, forcing multi-byte
// UTF-8 sequences to be split across reads.
type byteAtATimeReader struct {
	data []byte
	pos  int
}

func (r *byteAtATimeReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}

func readAll(t *testing.T, s Stream) []*Chunk {
	t.Helper()
	var chunks []*Chunk
	for {
		chunk, err := s.Read()
		if err == io.EOF {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
}

func TestSSEStreamStopsAtSentinel(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader(
		"data: {\"task_id\":\"a\"}\n\ndata: {\"task_id\":\"b\"}\ndata: [DONE]\ndata: {\"task_id\":\"c\"}\n",
	)}
	stream := NewSSEStream(body, nil)

	chunks := readAll(t, stream)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].TaskID)
	assert.Equal(t, "b", chunks[1].TaskID)

	// Exhausted streams keep returning io.EOF and the body is released.
	_, err := stream.Read()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 1, body.closed)
}

func TestSSEStreamSkipsMalformedJSON(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader(
		"data: not-json\ndata: {\"task_id\":\"x\"}\n",
	)}
	chunks := readAll(t, NewSSEStream(body, nil))
	require.Len(t, chunks, 1)
	assert.Equal(t, "x", chunks[0].TaskID)
}

func TestSSEStreamIgnoresNonDataLines(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader(
		"event: message\n: comment\n\ndata: {\"task_id\":\"y\"}\n\n",
	)}
	chunks := readAll(t, NewSSEStream(body, nil))
	require.Len(t, chunks, 1)
	assert.Equal(t, "y", chunks[0].TaskID)
}

func TestSSEStreamSplitMultibyte(t *testing.T) {
	payload := "data: {\"choices\":[{\"delta\":{\"content\":\"你好，世界\"}}]}\n"
	stream := NewSSEStream(&trackedBody{Reader: &byteAtATimeReader{data: []byte(payload)}}, nil)

	chunks := readAll(t, stream)
	require.Len(t, chunks, 1)
	assert.Equal(t, "你好，世界", chunks[0].DeltaContent())
}

func TestSSEStreamTrailingUnterminatedLine(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader(
		"data: {\"task_id\":\"a\"}\ndata: {\"type\":\"conversation\",\"conversation_id\":\"c1\"}",
	)}
	chunks := readAll(t, NewSSEStream(body, nil))
	require.Len(t, chunks, 2)
	assert.Equal(t, "c1", chunks[1].ConversationID)
}

func TestSSEStreamTrailingSentinel(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader("data: {\"task_id\":\"a\"}\ndata: [DONE]")}
	stream := NewSSEStream(body, nil)
	chunks := readAll(t, stream)
	require.Len(t, chunks, 1)
	assert.Equal(t, 1, body.closed)
}

func TestSSEStreamCloseReleasesBody(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader("data: {\"task_id\":\"a\"}\ndata: {\"task_id\":\"b\"}\n")}
	stream := NewSSEStream(body, nil)

	chunk, err := stream.Read()
	require.NoError(t, err)
	assert.Equal(t, "a", chunk.TaskID)

	// Consumer abandons the stream early.
	require.NoError(t, stream.Close())
	assert.Equal(t, 1, body.closed)

	_, err = stream.Read()
	assert.Equal(t, io.EOF, err)

	// Close is idempotent.
	require.NoError(t, stream.Close())
	assert.Equal(t, 1, body.closed)
}

func TestStreamToCallback(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"Sure\"}}]}\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\", here\"}}]}\n" +
			"data: [DONE]\n",
	)}

	var content strings.Builder
	err := StreamToCallback(NewSSEStream(body, nil), func(chunk *Chunk) error {
		content.WriteString(chunk.DeltaContent())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Sure, here", content.String())
	assert.Equal(t, 1, body.closed)
}

func TestStreamToCallbackPropagatesCallbackError(t *testing.T) {
	body := &trackedBody{Reader: strings.NewReader(
		"data: {\"task_id\":\"a\"}\ndata: {\"task_id\":\"b\"}\n",
	)}

	sentinel := errors.New("stop here")
	seen := 0
	err := StreamToCallback(NewSSEStream(body, nil), func(chunk *Chunk) error {
		seen++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, seen)
	assert.Equal(t, 1, body.closed, "body is released when the callback aborts")
}
