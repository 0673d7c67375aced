package chatsdk

import (
	"errors"
	"io"
)

// StreamCallback is a function called for each chunk in a stream.
type StreamCallback func(chunk *Chunk) error

// StreamToCallback reads a stream and calls the callback for each chunk.
// The stream is closed on every exit path.
func StreamToCallback(stream Stream, callback StreamCallback) error {
	defer stream.Close()

	for {
		chunk, err := stream.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := callback(chunk); err != nil {
			return err
		}
	}
}
