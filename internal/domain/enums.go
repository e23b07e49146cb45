package domain

// ActivityState is the classifier state for a single tick.
type ActivityState string

const (
	StateWorking  ActivityState = "working"
	StateIdle     ActivityState = "idle"
	StateOffHours ActivityState = "off_hours"
)

// SuspicionReason names the heuristic behind a SuspiciousEvent.
type SuspicionReason string

const (
	ReasonJitterPattern      SuspicionReason = "jitter_pattern"
	ReasonKeyboardSilence    SuspicionReason = "keyboard_silence"
	ReasonLowWindowDiversity SuspicionReason = "low_window_diversity"
	ReasonComposite          SuspicionReason = "composite"
)

// ValidSuspicionReasons is the canonical set of accepted reason strings.
var ValidSuspicionReasons = map[SuspicionReason]bool{
	ReasonJitterPattern:      true,
	ReasonKeyboardSilence:    true,
	ReasonLowWindowDiversity: true,
	ReasonComposite:          true,
}
