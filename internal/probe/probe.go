// Package probe implements readiness polling against a dependency's
// liveness endpoint.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// ErrTimedOut indicates the dependency never reported ready within the
// configured ceiling. Callers decide whether this is fatal.
var ErrTimedOut = errors.New("timed out waiting for dependency")

// Target describes the dependency being probed. Immutable once created.
type Target struct {
	// LivenessURL is the HTTP endpoint asked "are you up". Any 2xx
	// response, regardless of body, counts as ready.
	LivenessURL string

	// TCPAddress is a host:port fallback probed with a plain dial when
	// no liveness URL is configured.
	TCPAddress string
}

// Prober polls a target until it reports ready or a deadline passes.
type Prober struct {
	target   Target
	interval time.Duration
	maxWait  time.Duration
	client   *http.Client
}

// New creates a Prober for the given target. The maxWait ceiling is
// mandatory; polling never runs unbounded.
func New(target Target, interval, maxWait time.Duration) *Prober {
	return &Prober{
		target:   target,
		interval: interval,
		maxWait:  maxWait,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Target returns the probed target.
func (p *Prober) Target() Target {
	return p.target
}

// Check issues a single liveness probe. Connection failure, timeout, and
// non-2xx responses all mean "not yet ready".
func (p *Prober) Check(ctx context.Context) error {
	if p.target.LivenessURL != "" {
		return p.checkHTTP(ctx)
	}
	return p.checkTCP(ctx)
}

// WaitUntilReady polls every interval until the target reports ready,
// returning ErrTimedOut (wrapped) once maxWait elapses. The first probe
// fires immediately. External cancellation is observed between probes.
func (p *Prober) WaitUntilReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.maxWait)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var lastErr error
	for {
		err := p.Check(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w after %s (last error: %v)", ErrTimedOut, p.maxWait, lastErr)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Prober) checkHTTP(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.target.LivenessURL, nil)
	if err != nil {
		return fmt.Errorf("building liveness request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("liveness request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("liveness endpoint returned %d", resp.StatusCode)
	}
	return nil
}

func (p *Prober) checkTCP(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.target.TCPAddress)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.target.TCPAddress, err)
	}
	_ = conn.Close()
	return nil
}
