// internal/mirror/mirror.go

// Package mirror copies every ref of a source repository to a target
// repository through a throwaway bare clone.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	custom_errors "github-gitee-mirror/internal/errors"
)

// Mode records how the refs reached the target.
type Mode string

const (
	// ModeMirror means a single push --mirror succeeded.
	ModeMirror Mode = "mirror"
	// ModeAllTags means the target refused hidden refs and branches and
	// tags were pushed separately.
	ModeAllTags Mode = "all+tags"
)

const redacted = "***"

// MaxCommands is the most git commands one transfer runs: clone, push
// --mirror, then push --all and push --tags on fallback.
const MaxCommands = 4

// MaxDuration bounds one transfer when each command is limited to timeout.
func MaxDuration(timeout time.Duration) time.Duration {
	return MaxCommands * timeout
}

// hiddenRefPattern matches the receive-pack rejections a target issues for
// refs it hides or protects (GitHub pull refs, protected branches).
var hiddenRefPattern = regexp.MustCompile(`(?i)(hidden ref|protected (branch|ref))`)

// Request describes one transfer. Both URLs carry credentials; Secrets lists
// the values to scrub from diagnostics.
type Request struct {
	SourceURL string
	TargetURL string
	Secrets   []string
}

// Result is the outcome of a successful transfer.
type Result struct {
	Mode Mode
}

// Mirrorer performs clone and push transfers.
type Mirrorer struct {
	git     Runner
	workDir string
	logger  *slog.Logger
}

// New creates a Mirrorer whose scratch clones live under workDir
// (the OS temp dir when empty).
func New(git Runner, workDir string, logger *slog.Logger) *Mirrorer {
	return &Mirrorer{git: git, workDir: workDir, logger: logger}
}

// Mirror clones req.SourceURL with --mirror and pushes every ref to
// req.TargetURL, overwriting the target. If the target rejects hidden or
// protected refs, branches and then tags are pushed separately instead.
func (m *Mirrorer) Mirror(ctx context.Context, req Request) (Result, error) {
	dir, err := os.MkdirTemp(m.workDir, "mirror-*")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create working directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			m.logger.Warn("Failed to remove working directory", "dir", dir, "error", rmErr)
		}
	}()

	if err := m.git.Run(ctx, dir, "clone", "--mirror", req.SourceURL, "repo.git"); err != nil {
		return Result{}, scrub(err, req.Secrets)
	}
	repoDir := filepath.Join(dir, "repo.git")

	err = m.git.Run(ctx, repoDir, "push", "--mirror", req.TargetURL)
	if err == nil {
		return Result{Mode: ModeMirror}, nil
	}
	if !IsHiddenRefRejection(err) {
		return Result{}, scrub(err, req.Secrets)
	}

	m.logger.Warn("Target rejected hidden refs, pushing branches and tags separately")
	if err := m.git.Run(ctx, repoDir, "push", "--all", "--force", req.TargetURL); err != nil {
		return Result{}, scrub(err, req.Secrets)
	}
	if err := m.git.Run(ctx, repoDir, "push", "--tags", "--force", req.TargetURL); err != nil {
		return Result{}, scrub(err, req.Secrets)
	}
	return Result{Mode: ModeAllTags}, nil
}

// IsHiddenRefRejection reports whether err is a push failure caused by the
// target refusing hidden or protected refs.
func IsHiddenRefRejection(err error) bool {
	var transferErr *custom_errors.ErrTransfer
	if !errors.As(err, &transferErr) || transferErr.TimedOut {
		return false
	}
	return hiddenRefPattern.MatchString(transferErr.Stderr)
}

// scrub removes secrets from a transfer diagnostic.
func scrub(err error, secrets []string) error {
	var transferErr *custom_errors.ErrTransfer
	if !errors.As(err, &transferErr) {
		return err
	}
	clean := *transferErr
	clean.Stderr = Redact(clean.Stderr, secrets...)
	return &clean
}

// Redact replaces every non-empty secret in s.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, redacted)
		}
	}
	return s
}
