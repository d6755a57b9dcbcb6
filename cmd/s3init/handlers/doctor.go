package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/imamik/s3init/internal/config"
	"github.com/imamik/s3init/internal/policy"
	"github.com/imamik/s3init/internal/probe"
)

// Diagnosis is the doctor report for JSON output.
type Diagnosis struct {
	Endpoint string      `json:"endpoint"`
	Bucket   string      `json:"bucket"`
	Config   CheckResult `json:"config"`
	Policy   CheckResult `json:"policy"`
	Liveness CheckResult `json:"liveness"`
	Warnings []string    `json:"warnings,omitempty"`
}

// CheckResult is a single diagnostic outcome.
type CheckResult struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Message string `json:"message,omitempty"`
}

// Healthy reports whether every performed check passed.
func (d *Diagnosis) Healthy() bool {
	for _, c := range []CheckResult{d.Config, d.Policy, d.Liveness} {
		if !c.Skipped && !c.OK {
			return false
		}
	}
	return true
}

// Doctor handles the doctor command: validate configuration and policy,
// probe the endpoint once, change nothing.
func Doctor(ctx context.Context, configPath string, jsonOutput bool) error {
	diag := &Diagnosis{}

	cfg, err := loadConfig(configPath)
	if err != nil {
		diag.Config = CheckResult{OK: false, Message: err.Error()}
		diag.Policy = CheckResult{Skipped: true}
		diag.Liveness = CheckResult{Skipped: true}
		return report(diag, jsonOutput)
	}
	diag.Config = CheckResult{OK: true}
	diag.Endpoint = cfg.Endpoint
	diag.Bucket = cfg.Bucket

	diag.Policy = checkPolicy(cfg, diag)
	diag.Liveness = checkLiveness(ctx, cfg)

	return report(diag, jsonOutput)
}

func checkPolicy(cfg *config.Config, diag *Diagnosis) CheckResult {
	raw, err := cfg.PolicyDocument()
	if err != nil {
		return CheckResult{OK: false, Message: err.Error()}
	}
	if raw == nil {
		return CheckResult{Skipped: true, Message: "no policy configured"}
	}

	doc, err := policy.Parse(raw)
	if err != nil {
		return CheckResult{OK: false, Message: err.Error()}
	}
	if doc.HasWildcardPrincipal() {
		diag.Warnings = append(diag.Warnings,
			`policy grants access to the anonymous principal "*"; review before exposing publicly`)
	}
	return CheckResult{OK: true}
}

func checkLiveness(ctx context.Context, cfg *config.Config) CheckResult {
	prober := probe.New(probe.Target{LivenessURL: cfg.LivenessURL()}, cfg.PollInterval, cfg.MaxWait)
	if err := prober.Check(ctx); err != nil {
		return CheckResult{OK: false, Message: err.Error()}
	}
	return CheckResult{OK: true}
}

func report(diag *Diagnosis, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(diag); err != nil {
			return err
		}
	} else {
		printDiagnosis(diag)
	}

	if !diag.Healthy() {
		return &ExitError{Code: 1, Err: fmt.Errorf("doctor found problems")}
	}
	return nil
}

func printDiagnosis(diag *Diagnosis) {
	if diag.Endpoint != "" {
		fmt.Printf("endpoint: %s\nbucket:   %s\n\n", diag.Endpoint, diag.Bucket)
	}
	printCheck("config", diag.Config)
	printCheck("policy", diag.Policy)
	printCheck("liveness", diag.Liveness)

	for _, w := range diag.Warnings {
		fmt.Printf("\n[??] warning: %s\n", w)
	}
}

func printCheck(name string, c CheckResult) {
	switch {
	case c.Skipped:
		fmt.Printf("[--] %-10s %s\n", name, c.Message)
	case c.OK:
		fmt.Printf("[OK] %-10s\n", name)
	default:
		fmt.Printf("[!!] %-10s %s\n", name, c.Message)
	}
}
