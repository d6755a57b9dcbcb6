package bootstrap

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Observer receives structured events during a run. The invoking
// orchestrator consumes these events plus the process exit code and
// nothing else.
type Observer interface {
	Event(event Event)
}

// Event is a structured provisioning event.
type Event struct {
	Type     EventType
	Step     string
	Outcome  Outcome
	Attempts int
	Elapsed  time.Duration
	Message  string
	Err      error
}

// EventType classifies provisioning events.
type EventType string

const (
	// EventProbeStarted indicates readiness polling has begun.
	EventProbeStarted EventType = "probe.started"
	// EventProbeReady indicates the dependency reported live.
	EventProbeReady EventType = "probe.ready"
	// EventProbeTimedOut indicates the wait ceiling elapsed first.
	EventProbeTimedOut EventType = "probe.timed_out"

	// EventStepStarted indicates a step is being applied.
	EventStepStarted EventType = "step.started"
	// EventStepRetrying indicates an attempt failed transiently; one is
	// emitted per failed attempt.
	EventStepRetrying EventType = "step.retrying"
	// EventStepConverged indicates a step reached its postcondition.
	EventStepConverged EventType = "step.converged"
	// EventStepFailed indicates a step failed fatally.
	EventStepFailed EventType = "step.failed"

	// EventPolicyWarning flags a policy document for operator review.
	EventPolicyWarning EventType = "policy.warning"

	// EventRunCompleted is the final summary event.
	EventRunCompleted EventType = "run.completed"
)

// LogObserver emits events as structured zerolog lines.
type LogObserver struct {
	log zerolog.Logger
}

// NewLogObserver creates an observer writing JSON events to w. With
// console enabled, output is rendered human-readable instead.
func NewLogObserver(w io.Writer, console bool) *LogObserver {
	var out io.Writer = w
	if console {
		cw := zerolog.NewConsoleWriter()
		cw.Out = w
		cw.TimeFormat = time.RFC3339
		out = cw
	}
	return &LogObserver{
		log: zerolog.New(out).With().Timestamp().Logger(),
	}
}

// Event implements Observer.
func (o *LogObserver) Event(event Event) {
	var ev *zerolog.Event
	switch event.Type {
	case EventStepFailed, EventProbeTimedOut:
		ev = o.log.Error()
	case EventPolicyWarning, EventStepRetrying:
		ev = o.log.Warn()
	default:
		ev = o.log.Info()
	}

	ev = ev.Str("event", string(event.Type))
	if event.Step != "" {
		ev = ev.Str("step", event.Step)
	}
	if event.Outcome != "" {
		ev = ev.Str("outcome", string(event.Outcome))
	}
	if event.Attempts > 0 {
		ev = ev.Int("attempts", event.Attempts)
	}
	if event.Elapsed > 0 {
		ev = ev.Dur("elapsed", event.Elapsed)
	}
	if event.Err != nil {
		ev = ev.Err(event.Err)
	}
	ev.Msg(event.Message)
}

// NopObserver discards all events.
type NopObserver struct{}

// Event implements Observer.
func (NopObserver) Event(Event) {}
