package enums

// OutboxDLQErrorReason records why an outbox row was dead-lettered.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonUndecodable: the row failed validation against the event catalog.
	OutboxDLQReasonUndecodable OutboxDLQErrorReason = "undecodable"
	// OutboxDLQReasonNonRetryable: the publisher refused the event outright.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	// OutboxDLQReasonMaxAttempts: transient publish failures exhausted the retry budget.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
)

var dlqReasons = newSet("dlq error reason",
	OutboxDLQReasonUndecodable,
	OutboxDLQReasonNonRetryable,
	OutboxDLQReasonMaxAttempts,
)

func (r OutboxDLQErrorReason) String() string { return string(r) }

// Requeueable is true when the failure may clear without a code change.
func (r OutboxDLQErrorReason) Requeueable() bool {
	return r == OutboxDLQReasonMaxAttempts
}

func (r OutboxDLQErrorReason) IsValid() bool { return dlqReasons.has(r) }

// OutboxDLQErrorReasons lists every reason, in severity order.
func OutboxDLQErrorReasons() []OutboxDLQErrorReason { return dlqReasons.all() }

func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	return dlqReasons.parse(value)
}
