package handlers

import (
	"context"
	"fmt"

	s3platform "github.com/imamik/s3init/internal/platform/s3"
)

// Down handles the down command: detach the bucket policy and delete the
// bucket. Object data is never touched; a non-empty bucket is an error.
// A bucket that is already gone counts as success, so down can be re-run.
func Down(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	client, err := s3platform.NewClient(ctx, s3platform.Options{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		PathStyle: cfg.PathStyle,
	})
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)}
	}
	if !exists {
		fmt.Printf("bucket %s already absent\n", cfg.Bucket)
		return nil
	}

	if err := client.DeleteBucketPolicy(ctx, cfg.Bucket); err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("detaching policy from bucket %s: %w", cfg.Bucket, err)}
	}
	if err := client.DeleteBucket(ctx, cfg.Bucket); err != nil {
		return &ExitError{Code: 2, Err: fmt.Errorf("deleting bucket %s: %w", cfg.Bucket, err)}
	}

	fmt.Printf("bucket %s removed\n", cfg.Bucket)
	return nil
}
