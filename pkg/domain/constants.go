package domain

const (
	// UnknownIntent is the default intent name meaning the input could not be classified.
	UnknownIntent = "unknown"

	// GlobalState is the conventional id of the top-level state holding story-wide transitions.
	GlobalState = "Global"

	// DefaultRepetitionNb is the number of times an awaiting action may be asked again
	// before the story redirects.
	DefaultRepetitionNb = 2

	// TargetPrefix marks a transition target as a state id reference ("#ID").
	TargetPrefix = "#"
)
