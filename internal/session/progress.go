package session

// Progress is the value emitted over the progress interface:
// {fraction in [0,1], statusText, logEntries}.
type Progress struct {
	Fraction   float64
	StatusText string
	LogEntries []string
	State      State
}

// Observer receives Progress snapshots as the orchestrator advances. A
// terminal progress bar or external UI is the primary consumer envisioned,
// but tests use it too to assert on state transitions.
type Observer interface {
	OnProgress(Progress)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Progress)

func (f ObserverFunc) OnProgress(p Progress) { f(p) }
