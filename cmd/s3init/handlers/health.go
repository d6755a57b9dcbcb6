package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/s3init/internal/probe"
)

// Health handles the health command: probe the store's liveness endpoint,
// optionally polling until it comes up.
func Health(ctx context.Context, configPath string, wait bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	prober := probe.New(
		probe.Target{LivenessURL: cfg.LivenessURL()},
		cfg.PollInterval,
		cfg.MaxWait,
	)

	if wait {
		err = prober.WaitUntilReady(ctx)
	} else {
		err = prober.Check(ctx)
	}
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("object store at %s is not live: %w", cfg.Endpoint, err)}
	}

	fmt.Printf("object store at %s is live\n", cfg.Endpoint)
	return nil
}
