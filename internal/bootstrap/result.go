package bootstrap

import "time"

// Status is the overall result of a sequencer run.
type Status string

const (
	// StatusReady means the dependency came up and every step converged.
	StatusReady Status = "ready"
	// StatusTimedOut means the dependency never reported live within the
	// wait ceiling; no steps were attempted.
	StatusTimedOut Status = "timed_out"
	// StatusStepFailed means a step failed fatally; later steps were not
	// attempted.
	StatusStepFailed Status = "step_failed"
)

// ExitCode maps the run status to the process exit code observed by the
// invoking orchestrator.
func (s Status) ExitCode() int {
	switch s {
	case StatusReady:
		return 0
	case StatusTimedOut:
		return 1
	case StatusStepFailed:
		return 2
	}
	return 2
}

// StepResult records one attempted step.
type StepResult struct {
	Name     string
	Outcome  Outcome
	Attempts int
	Duration time.Duration
	Err      error
}

// RunResult is the immutable record of a single sequencer invocation.
type RunResult struct {
	Target  string
	Status  Status
	Steps   []StepResult
	Elapsed time.Duration
}

// FirstFailure returns the first step that did not converge, or nil.
func (r *RunResult) FirstFailure() *StepResult {
	for i := range r.Steps {
		if !r.Steps[i].Outcome.Converged() {
			return &r.Steps[i]
		}
	}
	return nil
}
