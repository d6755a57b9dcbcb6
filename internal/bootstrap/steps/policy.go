package steps

import (
	"context"
	"fmt"

	"github.com/imamik/s3init/internal/bootstrap"
	s3platform "github.com/imamik/s3init/internal/platform/s3"
	"github.com/imamik/s3init/internal/policy"
)

// PolicyAPI is the slice of the storage client the policy step needs.
type PolicyAPI interface {
	GetBucketPolicy(ctx context.Context, bucketName string) (string, bool, error)
	PutBucketPolicy(ctx context.Context, bucketName, policyJSON string) error
}

// PolicyStep ensures a policy document is attached to a bucket.
// Postcondition: the bucket's policy is equivalent to the configured
// document. Applying the same document twice yields the same end state.
type PolicyStep struct {
	api      PolicyAPI
	bucket   string
	document []byte
	observer bootstrap.Observer
	warned   bool
}

// NewPolicyStep creates the ensure-policy step. The raw document is
// validated during Apply so a malformed document surfaces as a fatal
// step failure, not a startup error.
func NewPolicyStep(api PolicyAPI, bucket string, document []byte, observer bootstrap.Observer) *PolicyStep {
	if observer == nil {
		observer = bootstrap.NopObserver{}
	}
	return &PolicyStep{api: api, bucket: bucket, document: document, observer: observer}
}

// Name implements bootstrap.Step.
func (s *PolicyStep) Name() string {
	return "ensure-policy"
}

// Apply validates the document, compares it against any attached policy,
// and puts it when they differ. The document is attached exactly as
// configured; parsing serves validation and comparison only. Schema
// violations are fatal: retrying a validation failure cannot change the
// outcome.
func (s *PolicyStep) Apply(ctx context.Context) (bootstrap.Outcome, error) {
	doc, err := policy.Parse(s.document)
	if err != nil {
		return bootstrap.OutcomeFatal, err
	}

	// Warn once per run, not once per retry attempt.
	if doc.HasWildcardPrincipal() && !s.warned {
		s.warned = true
		s.observer.Event(bootstrap.Event{
			Type:    bootstrap.EventPolicyWarning,
			Step:    s.Name(),
			Message: fmt.Sprintf("policy for bucket %s grants access to the anonymous principal \"*\"; review before exposing publicly", s.bucket),
		})
	}

	current, attached, err := s.api.GetBucketPolicy(ctx, s.bucket)
	if err != nil {
		return classifyPolicyError(err, fmt.Errorf("fetching policy for bucket %s: %w", s.bucket, err))
	}
	if attached && policy.Equivalent([]byte(current), s.document) {
		return bootstrap.OutcomeAlreadySatisfied, nil
	}

	if err := s.api.PutBucketPolicy(ctx, s.bucket, string(s.document)); err != nil {
		return classifyPolicyError(err, fmt.Errorf("applying policy to bucket %s: %w", s.bucket, err))
	}
	return bootstrap.OutcomeSuccess, nil
}

func classifyPolicyError(cause, wrapped error) (bootstrap.Outcome, error) {
	if s3platform.IsMalformedPolicy(cause) || s3platform.IsAccessDenied(cause) || !s3platform.IsRetryable(cause) {
		return bootstrap.OutcomeFatal, wrapped
	}
	return bootstrap.OutcomeRetryable, wrapped
}
