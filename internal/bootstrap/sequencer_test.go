package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/s3init/internal/probe"
	"github.com/imamik/s3init/internal/util/retry"
)

type fakeGate struct {
	err   error
	calls int
}

func (g *fakeGate) WaitUntilReady(context.Context) error {
	g.calls++
	return g.err
}

// fakeStep replays a scripted sequence of outcomes, then repeats the
// last one forever.
type fakeStep struct {
	name    string
	script  []Outcome
	applied int
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Apply(context.Context) (Outcome, error) {
	i := s.applied
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.applied++

	outcome := s.script[i]
	if outcome == OutcomeRetryable {
		return outcome, errors.New("transient failure")
	}
	if outcome == OutcomeFatal {
		return outcome, errors.New("permanent failure")
	}
	return outcome, nil
}

func fastRetry(attempts int) []retry.Option {
	return []retry.Option{
		retry.WithMaxAttempts(attempts),
		retry.WithInitialDelay(time.Millisecond),
	}
}

func TestRun_AllStepsSucceed(t *testing.T) {
	t.Parallel()
	bucket := &fakeStep{name: "ensure-bucket", script: []Outcome{OutcomeSuccess}}
	pol := &fakeStep{name: "ensure-policy", script: []Outcome{OutcomeSuccess}}

	seq := NewSequencer(&fakeGate{}, "http://minio:9000", []Step{bucket, pol}, nil, fastRetry(3)...)
	result := seq.Run(context.Background())

	assert.Equal(t, StatusReady, result.Status)
	assert.Equal(t, 0, result.Status.ExitCode())
	require.Len(t, result.Steps, 2)
	assert.Equal(t, OutcomeSuccess, result.Steps[0].Outcome)
	assert.Equal(t, OutcomeSuccess, result.Steps[1].Outcome)
	assert.Equal(t, 1, result.Steps[0].Attempts)
	assert.Nil(t, result.FirstFailure())
}

func TestRun_TimedOutAttemptsZeroSteps(t *testing.T) {
	t.Parallel()
	step := &fakeStep{name: "ensure-bucket", script: []Outcome{OutcomeSuccess}}
	gate := &fakeGate{err: probe.ErrTimedOut}

	seq := NewSequencer(gate, "http://minio:9000", []Step{step}, nil, fastRetry(3)...)
	result := seq.Run(context.Background())

	assert.Equal(t, StatusTimedOut, result.Status)
	assert.Equal(t, 1, result.Status.ExitCode())
	assert.Empty(t, result.Steps)
	assert.Zero(t, step.applied)
}

func TestRun_FatalShortCircuits(t *testing.T) {
	t.Parallel()
	first := &fakeStep{name: "ensure-bucket", script: []Outcome{OutcomeSuccess}}
	second := &fakeStep{name: "ensure-policy", script: []Outcome{OutcomeFatal}}
	third := &fakeStep{name: "ensure-lifecycle", script: []Outcome{OutcomeSuccess}}

	seq := NewSequencer(&fakeGate{}, "http://minio:9000", []Step{first, second, third}, nil, fastRetry(3)...)
	result := seq.Run(context.Background())

	assert.Equal(t, StatusStepFailed, result.Status)
	assert.Equal(t, 2, result.Status.ExitCode())
	// Exactly the steps up to and including the failing one.
	require.Len(t, result.Steps, 2)
	assert.Equal(t, OutcomeSuccess, result.Steps[0].Outcome)
	assert.Equal(t, OutcomeFatal, result.Steps[1].Outcome)
	assert.Zero(t, third.applied)

	failure := result.FirstFailure()
	require.NotNil(t, failure)
	assert.Equal(t, "ensure-policy", failure.Name)
	// The fatal step was not retried.
	assert.Equal(t, 1, failure.Attempts)
}

func TestRun_RetryableThenSuccessRecordedAsSuccess(t *testing.T) {
	t.Parallel()
	step := &fakeStep{name: "ensure-bucket", script: []Outcome{OutcomeRetryable, OutcomeRetryable, OutcomeSuccess}}

	seq := NewSequencer(&fakeGate{}, "http://minio:9000", []Step{step}, nil, fastRetry(3)...)
	result := seq.Run(context.Background())

	assert.Equal(t, StatusReady, result.Status)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, OutcomeSuccess, result.Steps[0].Outcome)
	assert.Equal(t, 3, result.Steps[0].Attempts)
	assert.NoError(t, result.Steps[0].Err)
}

func TestRun_RetryExhaustionConvertsToFatal(t *testing.T) {
	t.Parallel()
	step := &fakeStep{name: "ensure-bucket", script: []Outcome{OutcomeRetryable}}

	seq := NewSequencer(&fakeGate{}, "http://minio:9000", []Step{step}, nil, fastRetry(3)...)
	result := seq.Run(context.Background())

	assert.Equal(t, StatusStepFailed, result.Status)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, OutcomeFatal, result.Steps[0].Outcome)
	assert.Equal(t, 3, result.Steps[0].Attempts)
	assert.Error(t, result.Steps[0].Err)
}

func TestRun_SecondRunIsNoOp(t *testing.T) {
	t.Parallel()
	// First application changes state, every later one finds it already
	// satisfied, matching an idempotent step's contract.
	bucket := &fakeStep{name: "ensure-bucket", script: []Outcome{OutcomeSuccess, OutcomeAlreadySatisfied}}
	pol := &fakeStep{name: "ensure-policy", script: []Outcome{OutcomeSuccess, OutcomeAlreadySatisfied}}
	steps := []Step{bucket, pol}

	first := NewSequencer(&fakeGate{}, "http://minio:9000", steps, nil, fastRetry(3)...).Run(context.Background())
	second := NewSequencer(&fakeGate{}, "http://minio:9000", steps, nil, fastRetry(3)...).Run(context.Background())

	assert.Equal(t, StatusReady, first.Status)
	assert.Equal(t, StatusReady, second.Status)
	for _, sr := range second.Steps {
		assert.Equal(t, OutcomeAlreadySatisfied, sr.Outcome)
	}
}

func TestRun_CancellationBetweenSteps(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())

	cancelling := &cancelStep{cancel: cancel}
	after := &fakeStep{name: "ensure-policy", script: []Outcome{OutcomeSuccess}}

	seq := NewSequencer(&fakeGate{}, "http://minio:9000", []Step{cancelling, after}, nil, fastRetry(3)...)
	result := seq.Run(ctx)

	assert.Equal(t, StatusStepFailed, result.Status)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, OutcomeSuccess, result.Steps[0].Outcome)
	assert.ErrorIs(t, result.Steps[1].Err, context.Canceled)
	assert.Zero(t, after.applied)
}

// cancelStep succeeds but cancels the run context on its way out,
// simulating a signal arriving while a step is in flight.
type cancelStep struct {
	cancel context.CancelFunc
}

func (s *cancelStep) Name() string { return "ensure-bucket" }

func (s *cancelStep) Apply(context.Context) (Outcome, error) {
	s.cancel()
	return OutcomeSuccess, nil
}

func TestStatus_ExitCodes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, StatusReady.ExitCode())
	assert.Equal(t, 1, StatusTimedOut.ExitCode())
	assert.Equal(t, 2, StatusStepFailed.ExitCode())
	assert.Equal(t, 2, Status("unknown").ExitCode())
}

func TestOutcome_Converged(t *testing.T) {
	t.Parallel()
	assert.True(t, OutcomeSuccess.Converged())
	assert.True(t, OutcomeAlreadySatisfied.Converged())
	assert.False(t, OutcomeRetryable.Converged())
	assert.False(t, OutcomeFatal.Converged())
}

// recordingObserver captures emitted events for assertions.
type recordingObserver struct {
	events []Event
}

func (r *recordingObserver) Event(e Event) {
	r.events = append(r.events, e)
}

func (r *recordingObserver) ofType(t EventType) []Event {
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestRun_EmitsEventPerAttempt(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	step := &fakeStep{name: "ensure-bucket", script: []Outcome{OutcomeRetryable, OutcomeRetryable, OutcomeSuccess}}

	seq := NewSequencer(&fakeGate{}, "http://minio:9000", []Step{step}, obs, fastRetry(3)...)
	result := seq.Run(context.Background())

	require.Equal(t, StatusReady, result.Status)

	// One started event, one retrying event per failed attempt, one
	// converged event for the final attempt.
	assert.Len(t, obs.ofType(EventStepStarted), 1)

	retries := obs.ofType(EventStepRetrying)
	require.Len(t, retries, 2)
	assert.Equal(t, 1, retries[0].Attempts)
	assert.Equal(t, 2, retries[1].Attempts)
	assert.Equal(t, "ensure-bucket", retries[0].Step)
	assert.Equal(t, OutcomeRetryable, retries[0].Outcome)
	assert.Error(t, retries[0].Err)

	converged := obs.ofType(EventStepConverged)
	require.Len(t, converged, 1)
	assert.Equal(t, 3, converged[0].Attempts)
}

func TestRun_ExhaustionEmitsRetryEventForEveryAttempt(t *testing.T) {
	t.Parallel()
	obs := &recordingObserver{}
	step := &fakeStep{name: "ensure-bucket", script: []Outcome{OutcomeRetryable}}

	seq := NewSequencer(&fakeGate{}, "http://minio:9000", []Step{step}, obs, fastRetry(3)...)
	result := seq.Run(context.Background())

	require.Equal(t, StatusStepFailed, result.Status)
	assert.Len(t, obs.ofType(EventStepRetrying), 3)
	assert.Len(t, obs.ofType(EventStepFailed), 1)
}
