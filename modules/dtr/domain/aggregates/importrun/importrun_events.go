package importrun

import "time"

type ParsedEvent struct {
	Result     Run
	OccurredAt time.Time
}

type ReviewedEvent struct {
	Result     Run
	OccurredAt time.Time
}

type SubmittedEvent struct {
	Result     Run
	Records    int
	OccurredAt time.Time
}

type SubmissionFailedEvent struct {
	Result     Run
	Err        error
	OccurredAt time.Time
}

type CancelledEvent struct {
	Result     Run
	OccurredAt time.Time
}

func NewParsedEvent(r Run) *ParsedEvent {
	return &ParsedEvent{Result: r, OccurredAt: time.Now()}
}

func NewReviewedEvent(r Run) *ReviewedEvent {
	return &ReviewedEvent{Result: r, OccurredAt: time.Now()}
}

func NewSubmittedEvent(r Run, records int) *SubmittedEvent {
	return &SubmittedEvent{Result: r, Records: records, OccurredAt: time.Now()}
}

func NewSubmissionFailedEvent(r Run, err error) *SubmissionFailedEvent {
	return &SubmissionFailedEvent{Result: r, Err: err, OccurredAt: time.Now()}
}

func NewCancelledEvent(r Run) *CancelledEvent {
	return &CancelledEvent{Result: r, OccurredAt: time.Now()}
}
