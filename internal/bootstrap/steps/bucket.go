// Package steps contains the concrete provisioning steps applied to the
// object store.
package steps

import (
	"context"
	"fmt"

	"github.com/imamik/s3init/internal/bootstrap"
	s3platform "github.com/imamik/s3init/internal/platform/s3"
)

// BucketAPI is the slice of the storage client the bucket step needs.
type BucketAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	CreateBucket(ctx context.Context, bucketName string) (bool, error)
}

// BucketStep ensures a bucket exists. Postcondition: the named bucket
// exists and is owned by us.
type BucketStep struct {
	api    BucketAPI
	bucket string
}

// NewBucketStep creates the ensure-bucket step.
func NewBucketStep(api BucketAPI, bucket string) *BucketStep {
	return &BucketStep{api: api, bucket: bucket}
}

// Name implements bootstrap.Step.
func (s *BucketStep) Name() string {
	return "ensure-bucket"
}

// Apply checks existence first, then creates. Losing a check-then-create
// race to a concurrent bootstrapper converges to already satisfied.
func (s *BucketStep) Apply(ctx context.Context) (bootstrap.Outcome, error) {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return classify(err, fmt.Errorf("checking bucket %s: %w", s.bucket, err))
	}
	if exists {
		return bootstrap.OutcomeAlreadySatisfied, nil
	}

	created, err := s.api.CreateBucket(ctx, s.bucket)
	if err != nil {
		return classify(err, fmt.Errorf("creating bucket %s: %w", s.bucket, err))
	}
	if !created {
		return bootstrap.OutcomeAlreadySatisfied, nil
	}
	return bootstrap.OutcomeSuccess, nil
}

// classify maps a storage error to a step outcome.
func classify(cause, wrapped error) (bootstrap.Outcome, error) {
	if s3platform.IsAccessDenied(cause) || !s3platform.IsRetryable(cause) {
		return bootstrap.OutcomeFatal, wrapped
	}
	return bootstrap.OutcomeRetryable, wrapped
}
