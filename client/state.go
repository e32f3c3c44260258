package client

// State is a step of one Call:
//
//	Idle -> Sent -> Succeeded
//	             -> TimedOut -> RetryPending -> Sent ...
//	             -> NetworkFailed
//	             -> OtherFailed
type State int

const (
	Idle State = iota
	Sent
	Succeeded
	TimedOut
	RetryPending
	NetworkFailed
	OtherFailed
)

var stateNames = [...]string{"idle", "sent", "succeeded", "timed_out", "retry_pending", "network_failed", "other_failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether a Call ends in s. TimedOut is terminal only once
// the retry budget is spent, so it is not listed here.
func (s State) Terminal() bool {
	return s == Succeeded || s == NetworkFailed || s == OtherFailed
}

// Observer receives every state change with the zero-based attempt number.
type Observer func(attempt int, s State)
