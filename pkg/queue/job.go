package queue

import "context"

// Job consumes one message type from the queue. Handle is called from a
// worker goroutine; returning an error schedules a retry and eventually
// moves the message to the dead letter list.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type this job consumes.
	Type() string

	// Handle processes one payload.
	Handle(ctx context.Context, payload interface{}) error
}
