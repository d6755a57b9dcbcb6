package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/s3init/internal/util/retry"
)

// ReadinessGate blocks until the dependency reports live or a wait
// ceiling elapses. Implemented by probe.Prober.
type ReadinessGate interface {
	WaitUntilReady(ctx context.Context) error
}

// Sequencer orders provisioning steps behind a readiness gate. Steps run
// strictly sequentially in the order given; later steps may depend on the
// postconditions of earlier ones.
type Sequencer struct {
	gate     ReadinessGate
	target   string
	steps    []Step
	retry    []retry.Option
	observer Observer
}

// NewSequencer creates a sequencer. target is a human-readable label for
// the dependency (endpoint URL or address) carried into the run result.
func NewSequencer(gate ReadinessGate, target string, steps []Step, observer Observer, retryOpts ...retry.Option) *Sequencer {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Sequencer{
		gate:     gate,
		target:   target,
		steps:    steps,
		retry:    retryOpts,
		observer: observer,
	}
}

// Run waits for the dependency, then applies each step in order. Steps
// returning OutcomeRetryable are retried with exponential backoff up to
// the attempt cap; exhaustion converts to a fatal failure. The first
// fatal failure stops the run. Re-running after a READY run is a safe
// no-op: every step reports its postcondition already satisfied.
func (s *Sequencer) Run(ctx context.Context) *RunResult {
	start := time.Now()
	result := &RunResult{Target: s.target}

	s.observer.Event(Event{Type: EventProbeStarted, Message: fmt.Sprintf("waiting for %s", s.target)})

	if err := s.gate.WaitUntilReady(ctx); err != nil {
		result.Status = StatusTimedOut
		result.Elapsed = time.Since(start)
		s.observer.Event(Event{
			Type:    EventProbeTimedOut,
			Elapsed: result.Elapsed,
			Err:     err,
			Message: "dependency unreachable",
		})
		s.summarize(result)
		return result
	}

	s.observer.Event(Event{Type: EventProbeReady, Elapsed: time.Since(start), Message: "dependency is live"})

	for _, step := range s.steps {
		// Cancellation is observed between steps, never mid-step.
		if err := ctx.Err(); err != nil {
			result.Steps = append(result.Steps, StepResult{
				Name:    step.Name(),
				Outcome: OutcomeFatal,
				Err:     err,
			})
			result.Status = StatusStepFailed
			result.Elapsed = time.Since(start)
			s.observer.Event(Event{
				Type:    EventStepFailed,
				Step:    step.Name(),
				Outcome: OutcomeFatal,
				Err:     err,
				Message: "run cancelled",
			})
			s.summarize(result)
			return result
		}

		sr := s.applyStep(ctx, step)
		result.Steps = append(result.Steps, sr)

		if !sr.Outcome.Converged() {
			result.Status = StatusStepFailed
			result.Elapsed = time.Since(start)
			s.summarize(result)
			return result
		}
	}

	result.Status = StatusReady
	result.Elapsed = time.Since(start)
	s.summarize(result)
	return result
}

// applyStep runs one step under the bounded retry policy and emits its
// events.
func (s *Sequencer) applyStep(ctx context.Context, step Step) StepResult {
	stepStart := time.Now()
	s.observer.Event(Event{Type: EventStepStarted, Step: step.Name(), Message: "applying"})

	var outcome Outcome
	attempt := 0
	attempts, err := retry.Do(ctx, func() error {
		attempt++
		var applyErr error
		outcome, applyErr = step.Apply(ctx)
		switch outcome {
		case OutcomeSuccess, OutcomeAlreadySatisfied:
			return nil
		case OutcomeFatal:
			if applyErr == nil {
				applyErr = errors.New("step reported fatal failure")
			}
			return retry.Fatal(applyErr)
		default:
			if applyErr == nil {
				applyErr = errors.New("step reported retryable failure")
			}
			s.observer.Event(Event{
				Type:     EventStepRetrying,
				Step:     step.Name(),
				Outcome:  outcome,
				Attempts: attempt,
				Elapsed:  time.Since(stepStart),
				Err:      applyErr,
				Message:  "transient failure",
			})
			return applyErr
		}
	}, s.retry...)

	sr := StepResult{
		Name:     step.Name(),
		Outcome:  outcome,
		Attempts: attempts,
		Duration: time.Since(stepStart),
		Err:      err,
	}

	if err != nil {
		// Retry exhaustion converts a retryable failure to fatal.
		sr.Outcome = OutcomeFatal
		s.observer.Event(Event{
			Type:     EventStepFailed,
			Step:     sr.Name,
			Outcome:  sr.Outcome,
			Attempts: sr.Attempts,
			Elapsed:  sr.Duration,
			Err:      err,
			Message:  "step failed",
		})
		return sr
	}

	s.observer.Event(Event{
		Type:     EventStepConverged,
		Step:     sr.Name,
		Outcome:  sr.Outcome,
		Attempts: sr.Attempts,
		Elapsed:  sr.Duration,
		Message:  convergeMessage(sr.Outcome),
	})
	return sr
}

func (s *Sequencer) summarize(result *RunResult) {
	ev := Event{
		Type:    EventRunCompleted,
		Elapsed: result.Elapsed,
		Message: fmt.Sprintf("run finished: %s (%d steps attempted)", result.Status, len(result.Steps)),
	}
	if failure := result.FirstFailure(); failure != nil {
		ev.Step = failure.Name
		ev.Err = failure.Err
		ev.Message = fmt.Sprintf("run finished: %s (first failing step: %s)", result.Status, failure.Name)
	}
	s.observer.Event(ev)
}

func convergeMessage(o Outcome) string {
	if o == OutcomeAlreadySatisfied {
		return "already satisfied"
	}
	return "applied"
}
