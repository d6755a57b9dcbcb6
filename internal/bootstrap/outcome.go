// Package bootstrap implements the readiness-gated provisioning sequencer:
// it waits for a dependency to become live, then applies an ordered list
// of idempotent steps, retrying transient failures with bounded backoff.
package bootstrap

// Outcome is the result of applying a single provisioning step.
type Outcome string

const (
	// OutcomeAlreadySatisfied means the step's postcondition already
	// held; nothing was changed.
	OutcomeAlreadySatisfied Outcome = "already_satisfied"
	// OutcomeSuccess means the step changed state and its postcondition
	// now holds.
	OutcomeSuccess Outcome = "success"
	// OutcomeRetryable means the step failed transiently and may be
	// retried with backoff.
	OutcomeRetryable Outcome = "retryable_failure"
	// OutcomeFatal means the step failed permanently; retrying will not
	// change the result.
	OutcomeFatal Outcome = "fatal_failure"
)

// Converged reports whether the outcome satisfies the step's
// postcondition.
func (o Outcome) Converged() bool {
	return o == OutcomeSuccess || o == OutcomeAlreadySatisfied
}
