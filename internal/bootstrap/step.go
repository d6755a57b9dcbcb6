package bootstrap

import "context"

// Step is a single idempotent unit of setup work with a defined
// postcondition. Steps are created once at startup from static
// configuration and never mutated.
//
// Apply must be idempotent: re-applying after OutcomeSuccess or
// OutcomeAlreadySatisfied is a no-op. Apply either completes or fails
// atomically from the sequencer's point of view; cancellation is only
// observed between steps.
type Step interface {
	Name() string
	Apply(ctx context.Context) (Outcome, error)
}
