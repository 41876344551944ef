package enums

// QuoteStatus tracks a quote's commercial state. Any status may be written over any other.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusApproved QuoteStatus = "approved"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusReplaced QuoteStatus = "replaced"
)

var quoteStatuses = newSet("quote status", QuoteStatusDraft, QuoteStatusApproved, QuoteStatusRejected, QuoteStatusReplaced)

func (q QuoteStatus) String() string { return string(q) }

func (q QuoteStatus) IsValid() bool { return quoteStatuses.has(q) }

// IsApproved reports whether the status represents a client commitment.
func (q QuoteStatus) IsApproved() bool {
	return q == QuoteStatusApproved
}

func ParseQuoteStatus(value string) (QuoteStatus, error) {
	return quoteStatuses.parse(value)
}
