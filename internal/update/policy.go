package update

// Decision is the outcome of comparing a fetched release with known state.
type Decision int

const (
	// DecisionNoChange means the fetched version is not newer than the known one.
	DecisionNoChange Decision = iota
	// DecisionBaseline means no state was known; the fetched version becomes
	// the baseline without a notification.
	DecisionBaseline
	// DecisionUpdate means a strictly newer version was published.
	DecisionUpdate
)

// String returns the string representation of a Decision.
func (d Decision) String() string {
	switch d {
	case DecisionBaseline:
		return "baseline"
	case DecisionUpdate:
		return "update"
	default:
		return "no_change"
	}
}

// IsNewer reports whether latest is strictly greater than current.
func IsNewer(current, latest Version) bool {
	return Compare(latest, current) > 0
}

// Decide applies the update policy. known reports whether current came from
// recorded state; it is false only until the first baseline is stored.
func Decide(current Version, known bool, latest Version) Decision {
	if !known {
		return DecisionBaseline
	}
	if IsNewer(current, latest) {
		return DecisionUpdate
	}
	return DecisionNoChange
}
