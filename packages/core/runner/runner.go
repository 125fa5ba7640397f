package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/expect"
	"github.com/abdul-hamid-achik/loxspec/packages/core/interp"
	"github.com/abdul-hamid-achik/loxspec/packages/core/verify"
	"github.com/abdul-hamid-achik/loxspec/packages/stats"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultConcurrency is the default number of workers in parallel mode
	DefaultConcurrency = 4
)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// ResultFunc receives each result as soon as it and every result before
// it in discovery order are known
type ResultFunc func(result *TestResult)

type Config struct {
	Interpreter string
	Timeout     time.Duration
	Env         []string
	WorkDir     string
	Bail        bool
	Parallel    bool
	Concurrency int
	// Rate limits interpreter launches per second. Zero means unlimited.
	Rate float64
	// WarnConflicts reports files that declare both output lines and a
	// failure kind.
	WarnConflicts bool
}

type Runner struct {
	config   *Config
	executor *interp.Executor
	limiter    *rate.Limiter
	warnFunc   WarnFunc
	resultFunc ResultFunc
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	opts := []interp.ExecutorOption{interp.WithTimeout(cfg.Timeout)}
	if cfg.Env != nil {
		opts = append(opts, interp.WithEnv(cfg.Env))
	}
	if cfg.WorkDir != "" {
		opts = append(opts, interp.WithDir(cfg.WorkDir))
	}

	r := &Runner{
		config:   cfg,
		executor: interp.NewExecutor(cfg.Interpreter, opts...),
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	return r
}

// SetWarnFunc sets a function to be called when warnings occur
func (r *Runner) SetWarnFunc(fn WarnFunc) {
	r.warnFunc = fn
}

// SetResultFunc sets a function to be called with each result, in order
func (r *Runner) SetResultFunc(fn ResultFunc) {
	r.resultFunc = fn
}

func (r *Runner) emit(result *TestResult) {
	if r.resultFunc != nil {
		r.resultFunc(result)
	}
}

func (r *Runner) warn(format string, args ...any) {
	if r.warnFunc != nil {
		r.warnFunc(format, args...)
	}
}

// CheckInterpreter verifies the interpreter can be executed. It is the
// only check that is fatal to a whole run.
func (r *Runner) CheckInterpreter() error {
	_, err := interp.CheckBinary(r.config.Interpreter)
	return err
}

// TestResult is the outcome of running one test file
type TestResult struct {
	Name         string
	File         string
	Expectations *expect.Set
	// Exec is nil when the file could not be read or the run never started
	Exec     *interp.Result
	Verdict  verify.Verdict
	Duration time.Duration
}

// Passed reports whether the test passed
func (t *TestResult) Passed() bool {
	return t.Verdict.Passed
}

// Report aggregates the results of a run in discovery order
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Results   []*TestResult
	Passed    int
	Failed    int
	Timings   *stats.Summary
}

// Total returns the number of tests that ran
func (r *Report) Total() int {
	return len(r.Results)
}

// OK reports whether every test passed. A run with no tests is OK.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// RunFile extracts the expectations of one file, runs the interpreter on
// it and verifies the outcome. Every failure is reported on the verdict.
func (r *Runner) RunFile(ctx context.Context, tf TestFile) *TestResult {
	start := time.Now()
	result := &TestResult{
		Name: tf.Name,
		File: tf.Path,
	}
	defer func() {
		result.Duration = time.Since(start)
	}()

	set, err := expect.ExtractFile(tf.Path)
	if err != nil {
		result.Verdict = verify.ReadFailed(err)
		return result
	}
	result.Expectations = set

	if r.config.WarnConflicts && set.HasConflict() {
		r.warn("%s expects a %s and %d output line(s); output lines are ignored",
			tf.Name, set.Failure.Kind, len(set.Output))
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			result.Verdict = verify.LaunchFailed(err)
			return result
		}
	}

	exec := r.executor.Run(ctx, tf.Path)
	result.Exec = exec

	switch {
	case exec.TimedOut:
		result.Verdict = verify.TimedOut(exec.Timeout)
	case exec.LaunchErr != nil:
		result.Verdict = verify.LaunchFailed(exec.LaunchErr)
	default:
		result.Verdict = verify.Verify(set, exec)
	}

	return result
}

// Run runs every file and returns the aggregated report. With Bail set, no
// new file is started after the first failure and files that never ran are
// left out of the report.
func (r *Runner) Run(ctx context.Context, files []TestFile) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	var results []*TestResult
	if r.config.Parallel {
		results = r.runParallel(ctx, files)
	} else {
		results = r.runSequential(ctx, files)
	}

	recorder := stats.NewRecorder()
	for _, res := range results {
		if res == nil {
			continue
		}
		report.Results = append(report.Results, res)
		if res.Passed() {
			report.Passed++
		} else {
			report.Failed++
		}
		if res.Exec != nil {
			if res.Exec.TimedOut {
				recorder.RecordTimeout(res.Name)
			} else if res.Exec.LaunchErr == nil {
				recorder.Record(res.Name, res.Exec.Duration)
			}
		}
	}

	report.Timings = recorder.Summary()
	report.Duration = time.Since(report.StartedAt)
	return report
}

func (r *Runner) runSequential(ctx context.Context, files []TestFile) []*TestResult {
	results := make([]*TestResult, 0, len(files))
	for _, tf := range files {
		res := r.RunFile(ctx, tf)
		results = append(results, res)
		r.emit(res)
		if r.config.Bail && !res.Passed() {
			break
		}
	}
	return results
}

func (r *Runner) runParallel(ctx context.Context, files []TestFile) []*TestResult {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*TestResult, len(files))
	done := make([]bool, len(files))
	next := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	var failed atomic.Bool
	sem := make(chan struct{}, concurrency)

	// emitReady must be called with mu held
	emitReady := func() {
		for next < len(files) && done[next] {
			r.emit(results[next])
			next++
		}
	}

	for i, tf := range files {
		sem <- struct{}{} // acquire semaphore
		if r.config.Bail && failed.Load() {
			<-sem
			break
		}

		wg.Add(1)
		go func(idx int, file TestFile) {
			defer wg.Done()
			defer func() { <-sem }() // release semaphore

			res := r.RunFile(ctx, file)
			if !res.Passed() {
				failed.Store(true)
			}

			mu.Lock()
			results[idx] = res
			done[idx] = true
			emitReady()
			mu.Unlock()
		}(i, tf)
	}

	wg.Wait()

	// files skipped by bail leave gaps
	for ; next < len(files); next++ {
		if results[next] != nil {
			r.emit(results[next])
		}
	}
	return results
}
