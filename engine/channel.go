package engine

import (
	"context"
	"errors"
	"io"

	llmprovider "github.com/haowjy/meridian-llm-go"
)

// Channel drains stream on a new goroutine and delivers its events on the
// returned channel, which is closed when the stream ends. A terminal error
// arrives as an Error event. Cancelling ctx stops delivery and closes the stream.
func Channel(ctx context.Context, stream *EventStream, buffer int) <-chan llmprovider.StreamEvent {
	events := make(chan llmprovider.StreamEvent, buffer)

	go func() {
		defer close(events)
		defer stream.Close()

		send := func(event llmprovider.StreamEvent) bool {
			select {
			case events <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var last llmprovider.EventType
		for {
			event, err := stream.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if last != llmprovider.EventError {
					send(llmprovider.ErrorEvent(err))
				}
				return
			}

			last = event.Type
			if !send(event) {
				return
			}
		}
	}()

	return events
}
