package interp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single interpreter run.
const DefaultTimeout = 5 * time.Second

// waitDelay bounds how long Wait may block on output pipes after the
// process was killed.
const waitDelay = 500 * time.Millisecond

// ErrInterpreterNotFound is returned by CheckBinary when the interpreter
// cannot be resolved to an executable file.
var ErrInterpreterNotFound = errors.New("interpreter not found")

// CheckBinary resolves the interpreter path the way exec does: paths
// containing a separator are checked directly, bare names are looked up
// in PATH. It returns the resolved path.
func CheckBinary(binary string) (string, error) {
	if binary == "" {
		return "", fmt.Errorf("%w: no interpreter configured", ErrInterpreterNotFound)
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInterpreterNotFound, binary, err)
	}
	return path, nil
}

// Executor launches the interpreter on test files.
type Executor struct {
	binary  string
	timeout time.Duration
	env     []string
	dir     string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTimeout sets the per-run timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithEnv sets the complete environment of the interpreter process.
func WithEnv(env []string) ExecutorOption {
	return func(e *Executor) {
		e.env = env
	}
}

// WithDir sets the working directory of the interpreter process.
func WithDir(dir string) ExecutorOption {
	return func(e *Executor) {
		e.dir = dir
	}
}

// NewExecutor creates an executor for the given interpreter binary.
func NewExecutor(binary string, opts ...ExecutorOption) *Executor {
	e := &Executor{
		binary:  binary,
		timeout: DefaultTimeout,
		env:     os.Environ(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Binary returns the interpreter path.
func (e *Executor) Binary() string {
	return e.binary
}

// Timeout returns the per-run timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Run executes "<binary> <file>" and captures its output. Run never returns
// an error: launch failures and timeouts are reported on the Result.
func (e *Executor) Run(ctx context.Context, file string) *Result {
	result := &Result{Timeout: e.timeout}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.binary, file)
	cmd.Env = e.env
	cmd.Dir = e.dir
	cmd.WaitDelay = waitDelay
	configureProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		result.Duration = time.Since(start)
		result.LaunchErr = err
		return result
	}

	err := cmd.Wait()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		return result
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else if !errors.Is(err, exec.ErrWaitDelay) {
			result.LaunchErr = err
		}
	}

	return result
}
