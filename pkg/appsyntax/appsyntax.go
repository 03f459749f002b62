// Package appsyntax obtains the schema dump from the application executable.
//
// The application prints its object/system hierarchy when run with --yaml,
// wrapped between marker lines. Runner executes it, Extract cuts the dump out
// of the surrounding output and Load ties both to an optional Cache so that
// an unchanged executable is not run again.
package appsyntax

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

const (
	// StartMarker precedes the dump in the application output.
	StartMarker = "**START YAML DATA**"
	// EndMarker follows the dump in the application output.
	EndMarker = "**END YAML DATA**"

	// DefaultTimeout bounds one application run.
	DefaultTimeout = 2 * time.Minute
)

// ErrMissingEndMarker is returned by Extract when the dump is not terminated.
var ErrMissingEndMarker = errors.New("missing " + EndMarker + " marker")

// ExternalToolError reports that the application could not produce a dump.
type ExternalToolError struct {
	Executable string
	Reason     string
	Stderr     string
	Err        error
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("failed to run %s: %s", e.Executable, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += " (stderr: " + stderr + ")"
	}
	return msg
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// Extract returns the text between the start and end markers. Input without
// a start marker is returned whole.
func Extract(raw []byte) ([]byte, error) {
	start := bytes.Index(raw, []byte(StartMarker))
	if start < 0 {
		return bytes.TrimSpace(raw), nil
	}
	body := raw[start+len(StartMarker):]
	end := bytes.Index(body, []byte(EndMarker))
	if end < 0 {
		return nil, ErrMissingEndMarker
	}
	return bytes.TrimSpace(body[:end]), nil
}

// Runner executes the application.
type Runner struct {
	Executable string
	// Args default to --yaml.
	Args    []string
	Timeout time.Duration
}

func (r *Runner) args() []string {
	if len(r.Args) == 0 {
		return []string{"--yaml"}
	}
	return r.Args
}

func (r *Runner) fail(reason string, err error, stderr string) *ExternalToolError {
	return &ExternalToolError{Executable: r.Executable, Reason: reason, Err: err, Stderr: stderr}
}

func (r *Runner) resolve() (string, error) {
	if r.Executable == "" {
		return "", r.fail("no executable configured", nil, "")
	}
	path, err := exec.LookPath(r.Executable)
	if err != nil {
		return "", r.fail("executable not found", err, "")
	}
	return path, nil
}

// Run executes the application and returns its standard output.
func (r *Runner) Run(ctx context.Context) ([]byte, error) {
	path, err := r.resolve()
	if err != nil {
		return nil, err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, r.args()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, r.fail(fmt.Sprintf("timed out after %s", timeout), ctx.Err(), stderr.String())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, r.fail(fmt.Sprintf("exit status %d", exitErr.ExitCode()), err, stderr.String())
		}
		return nil, r.fail("could not start", err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Key identifies the dump the runner would produce: a digest of the
// executable contents and arguments.
func (r *Runner) Key() (string, error) {
	path, err := r.resolve()
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", r.fail("cannot read executable", err, "")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", r.fail("cannot read executable", err, "")
	}
	h.Write([]byte(strings.Join(r.args(), "\x00")))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Cache stores extracted dumps by runner key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, dump []byte) error
}

// Load returns the decoded schema, running the application only when cache
// has no dump for the current executable. cache may be nil. Cache failures
// are logged and never fail the load.
func Load(ctx context.Context, runner *Runner, cache Cache, log *logrus.Logger) (*syntax.Tree, error) {
	if log == nil {
		log = logrus.New()
	}
	entry := log.WithField("executable", runner.Executable)

	var key string
	if cache != nil {
		k, err := runner.Key()
		if err != nil {
			return nil, err
		}
		key = k

		dump, ok, err := cache.Get(ctx, key)
		switch {
		case err != nil:
			entry.WithError(err).Warn("Syntax cache lookup failed")
		case ok:
			tree, err := syntax.Decode(dump)
			if err == nil {
				entry.WithField("nodes", tree.Len()).Debug("Loaded syntax from cache")
				return tree, nil
			}
			entry.WithError(err).Warn("Discarding undecodable cached syntax")
		}
	}

	raw, err := runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	dump, err := Extract(raw)
	if err != nil {
		return nil, runner.fail("unexpected output", err, "")
	}
	tree, err := syntax.Decode(dump)
	if err != nil {
		return nil, fmt.Errorf("decode syntax from %s: %w", runner.Executable, err)
	}
	entry.WithField("nodes", tree.Len()).Info("Loaded syntax from application")

	if cache != nil {
		if err := cache.Set(ctx, key, dump); err != nil {
			entry.WithError(err).Warn("Failed to cache syntax")
		}
	}
	return tree, nil
}
