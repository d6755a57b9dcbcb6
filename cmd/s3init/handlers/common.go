// Package handlers implements command execution for the s3init CLI.
package handlers

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/imamik/s3init/internal/bootstrap"
	"github.com/imamik/s3init/internal/config"
)

// defaultConfigFile is auto-detected in the working directory when no
// --config flag is given.
const defaultConfigFile = "s3init.yaml"

// ExitError carries a process exit code for the orchestrator. The code
// is the only channel besides logs that the surrounding tooling observes.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = defaultConfigFile
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("no config file found at ./%s (use --config)", defaultConfigFile)
		}
	}
	return config.LoadFile(path)
}

// newObserver builds the run observer. Logs go to stderr: JSON when piped
// or forced, console rendering on a terminal. stdout stays free for the
// human summary.
func newObserver(forceJSON bool) (bootstrap.Observer, bool) {
	interactive := isatty.IsTerminal(os.Stderr.Fd()) && !forceJSON
	return bootstrap.NewLogObserver(os.Stderr, interactive), interactive
}
