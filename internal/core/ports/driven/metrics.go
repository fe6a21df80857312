package driven

// Metrics receives counters for licence activity.
// All methods must be safe for concurrent use and must not block.
type Metrics interface {
	// IssueObserved counts an issuance attempt by outcome ("ok" or a rejection name).
	IssueObserved(outcome string)

	// RedeemObserved counts a redemption attempt by outcome.
	RedeemObserved(outcome string)

	// SweepObserved records one sweep and the number of grants it evicted.
	SweepObserved(removed int, err error)

	// ActiveGrants reports the number of active grants after a change.
	ActiveGrants(n int)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

// IssueObserved does nothing.
func (NopMetrics) IssueObserved(string) {}

// RedeemObserved does nothing.
func (NopMetrics) RedeemObserved(string) {}

// SweepObserved does nothing.
func (NopMetrics) SweepObserved(int, error) {}

// ActiveGrants does nothing.
func (NopMetrics) ActiveGrants(int) {}
