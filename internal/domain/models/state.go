package models

// JobStatus is a lifecycle state of an analysis job.
type JobStatus string

const (
	StatusCreated    JobStatus = "created"
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusPaused     JobStatus = "paused"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further processing can happen in this state.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// JobEvent drives the lifecycle state machine.
type JobEvent string

const (
	EventQueue    JobEvent = "queue"
	EventStart    JobEvent = "start"
	EventPause    JobEvent = "pause"
	EventResume   JobEvent = "resume"
	EventComplete JobEvent = "complete"
	EventFail     JobEvent = "fail"
	EventCancel   JobEvent = "cancel"
	EventRetry    JobEvent = "retry"
)

// transitions is the full legal transition table. Anything absent is
// rejected with IllegalTransitionError.
var transitions = map[JobStatus]map[JobEvent]JobStatus{
	StatusCreated: {
		EventQueue: StatusQueued,
	},
	StatusQueued: {
		EventStart:  StatusProcessing,
		EventCancel: StatusCancelled,
		EventFail:   StatusFailed,
	},
	StatusProcessing: {
		EventPause:    StatusPaused,
		EventComplete: StatusCompleted,
		EventCancel:   StatusCancelled,
		EventFail:     StatusFailed,
	},
	StatusPaused: {
		EventResume: StatusProcessing,
		EventCancel: StatusCancelled,
	},
	StatusFailed: {
		EventRetry: StatusQueued,
	},
}

// NextStatus resolves an event against a state, without side effects.
func NextStatus(from JobStatus, ev JobEvent) (JobStatus, error) {
	if next, ok := transitions[from][ev]; ok {
		return next, nil
	}
	return from, &IllegalTransitionError{From: from, Event: ev}
}

// CanTransition is a pure predicate for UI and decision logic.
func CanTransition(from JobStatus, ev JobEvent) bool {
	_, ok := transitions[from][ev]
	return ok
}
