package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/imamik/s3init/internal/bootstrap"
	"github.com/imamik/s3init/internal/bootstrap/steps"
	s3platform "github.com/imamik/s3init/internal/platform/s3"
	"github.com/imamik/s3init/internal/probe"
	"github.com/imamik/s3init/internal/ui"
	"github.com/imamik/s3init/internal/util/retry"
)

// Up handles the up command: wait for the store, apply the provisioning
// steps, report the outcome through logs and the exit code.
func Up(ctx context.Context, configPath string, forceJSON bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	observer, interactive := newObserver(forceJSON)

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

	stepList := []bootstrap.Step{
		steps.NewBucketStep(client, cfg.Bucket),
	}

	policyDoc, err := cfg.PolicyDocument()
	if err != nil {
		return err
	}
	if policyDoc != nil {
		stepList = append(stepList, steps.NewPolicyStep(client, cfg.Bucket, policyDoc, observer))
	}

	prober := probe.New(
		probe.Target{LivenessURL: cfg.LivenessURL()},
		cfg.PollInterval,
		cfg.MaxWait,
	)

	seq := bootstrap.NewSequencer(prober, cfg.Endpoint, stepList, observer,
		retry.WithMaxAttempts(cfg.Retry.MaxAttempts),
		retry.WithInitialDelay(cfg.Retry.InitialDelay),
		retry.WithMaxDelay(cfg.Retry.MaxDelay),
		retry.WithMultiplier(cfg.Retry.Multiplier),
	)

	result := seq.Run(ctx)

	if interactive {
		fmt.Fprint(os.Stdout, ui.RenderSummary(result))
	}

	if result.Status != bootstrap.StatusReady {
		err := fmt.Errorf("bootstrap finished with status %s", result.Status)
		if failure := result.FirstFailure(); failure != nil && failure.Err != nil {
			err = fmt.Errorf("bootstrap finished with status %s: %s: %w", result.Status, failure.Name, failure.Err)
		}
		return &ExitError{Code: result.Status.ExitCode(), Err: err}
	}
	return nil
}
