package processor

// Pipeline stage, logged on every transition.
// ENUM(idle, gathering, spining, navigating, sampling, resolving-styles, finalized)
type State int
