// internal/mirror/git.go
package mirror

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	custom_errors "github-gitee-mirror/internal/errors"
)

// Runner invokes the version-control executable.
type Runner interface {
	// Run executes the command described by args inside dir. A non-zero
	// exit is returned as *errors.ErrTransfer carrying the command's stderr.
	Run(ctx context.Context, dir string, args ...string) error
}

// ExecRunner runs git as an external process with a per-command timeout.
type ExecRunner struct {
	Binary  string
	Timeout time.Duration
}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner creates an ExecRunner for binary (usually "git").
func NewExecRunner(binary string, timeout time.Duration) *ExecRunner {
	return &ExecRunner{Binary: binary, Timeout: timeout}
}

func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = dir
	// Never block on a credential prompt.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=")
	cmd.WaitDelay = 10 * time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	op := ""
	if len(args) > 0 {
		op = args[0]
	}
	transferErr := &custom_errors.ErrTransfer{
		Op:     op,
		Stderr: strings.TrimSpace(stderr.String()),
		Err:    err,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		transferErr.TimedOut = true
	}
	if transferErr.Stderr == "" {
		transferErr.Stderr = err.Error()
	}
	return transferErr
}
