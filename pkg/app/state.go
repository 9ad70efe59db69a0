package app

// State is the lifecycle position of an App.
type State int32

const (
	StateIdle State = iota
	StateLibrariesInitialized
	StateDataLoading
	StateEntered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLibrariesInitialized:
		return "libraries-initialized"
	case StateDataLoading:
		return "data-loading"
	case StateEntered:
		return "entered"
	default:
		return "unknown"
	}
}
