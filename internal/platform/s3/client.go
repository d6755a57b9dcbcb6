// Package s3 provides a client for S3-compatible object storage
// (MinIO, Hetzner Object Storage, AWS S3).
package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client wraps the AWS S3 client for provisioning operations.
type Client struct {
	s3     *s3.Client
	region string
}

// Options configures the client connection.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string

	// PathStyle forces path-style addressing. MinIO requires it;
	// Hetzner and AWS use virtual-hosted style.
	PathStyle bool
}

// NewClient creates a client for an S3-compatible endpoint using static
// credentials. No process-wide default session is used; every call goes
// through the returned value.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")),
		config.WithRegion(opts.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = opts.PathStyle
		// Retrying happens at the provisioning-step level; the SDK's
		// own retryer would stack a second backoff underneath it.
		o.RetryMaxAttempts = 1
	})

	return &Client{s3: client, region: opts.Region}, nil
}

// BucketExists checks if a bucket exists and is accessible.
func (c *Client) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}
	return true, nil
}

// CreateBucket creates a bucket. The returned bool is false when the
// bucket already existed and was owned by us, which callers treat as the
// losing side of a harmless check-then-create race.
func (c *Client) CreateBucket(ctx context.Context, bucketName string) (bool, error) {
	_, err := c.s3.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		if IsBucketAlreadyOwned(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}
	return true, nil
}

// GetBucketPolicy fetches the policy document attached to a bucket. The
// returned bool is false when no policy is attached.
func (c *Client) GetBucketPolicy(ctx context.Context, bucketName string) (string, bool, error) {
	result, err := c.s3.GetBucketPolicy(ctx, &s3.GetBucketPolicyInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		if IsNoSuchBucketPolicy(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get policy for bucket %s: %w", bucketName, err)
	}
	if result.Policy == nil {
		return "", false, nil
	}
	return *result.Policy, true, nil
}

// PutBucketPolicy attaches a policy document to a bucket. Setting the same
// document twice yields the same end state; the API never complains about
// an existing policy.
func (c *Client) PutBucketPolicy(ctx context.Context, bucketName, policyJSON string) error {
	_, err := c.s3.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucketName),
		Policy: aws.String(policyJSON),
	})
	if err != nil {
		return fmt.Errorf("failed to put policy on bucket %s: %w", bucketName, err)
	}
	return nil
}

// DeleteBucketPolicy removes the policy from a bucket.
func (c *Client) DeleteBucketPolicy(ctx context.Context, bucketName string) error {
	_, err := c.s3.DeleteBucketPolicy(ctx, &s3.DeleteBucketPolicyInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete policy on bucket %s: %w", bucketName, err)
	}
	return nil
}

// DeleteBucket deletes a bucket. The bucket must be empty.
func (c *Client) DeleteBucket(ctx context.Context, bucketName string) error {
	_, err := c.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", bucketName, err)
	}
	return nil
}
