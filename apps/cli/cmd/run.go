package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/abdul-hamid-achik/loxspec/packages/core/config"
	"github.com/abdul-hamid-achik/loxspec/packages/core/env"
	"github.com/abdul-hamid-achik/loxspec/packages/core/interp"
	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
	"github.com/abdul-hamid-achik/loxspec/packages/history"
	"github.com/abdul-hamid-achik/loxspec/packages/notify"
	"github.com/abdul-hamid-achik/loxspec/packages/output"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [file|directory...]",
	Short: "Run the test corpus through the interpreter",
	Long: `Run each test file through the interpreter and check its output,
exit status and error messages against the annotations in the file.

With no arguments the configured test directory (default test/integration)
is searched for .lox files.

Examples:
  loxspec run
  loxspec run test/integration/closure
  loxspec run -i ./build/clox --timeout 10s
  loxspec run --parallel --concurrency 8
  loxspec run -o junit --output-file report.xml
  loxspec run --history sqlite://.loxspec/history.db
  loxspec run --watch`,
	RunE: runCommand,
}

var (
	interpreterFlag  string
	envFileFlag      string
	configFlag       string
	nameFlag         string
	extFlag          []string
	verboseFlag      int
	quietFlag        bool
	bailFlag         bool
	timeoutFlag      string
	noColorFlag      bool
	dryRunFlag       bool
	outputFlag       string
	outputFileFlag   string
	parallelFlag     bool
	concurrencyFlag  int
	rateFlag         float64
	watchFlag        bool
	workDirFlag      string
	historyFlag      string
	notifyFlag       string
	notifyOnFlag     string
	slackWebhookFlag string
	slackChannelFlag string
)

func init() {
	// Core flags
	runCmd.Flags().StringVarP(&interpreterFlag, "interpreter", "i", getEnvString("LOXSPEC_INTERPRETER", config.DefaultInterpreter), "Interpreter binary to test (env: LOXSPEC_INTERPRETER)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("LOXSPEC_CONFIG", ""), "Path to config file (env: LOXSPEC_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("LOXSPEC_ENV_FILE", ""), "Path to .env file added to the interpreter environment (env: LOXSPEC_ENV_FILE)")
	runCmd.Flags().StringVar(&workDirFlag, "work-dir", getEnvString("LOXSPEC_WORK_DIR", ""), "Working directory for the interpreter (env: LOXSPEC_WORK_DIR)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only tests whose name matches the pattern (e.g. closure/*)")
	runCmd.Flags().StringSliceVar(&extFlag, "ext", config.DefaultExtensions, "Test file extensions (env: LOXSPEC_EXT)")

	// Output flags
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output with timings")
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("LOXSPEC_QUIET", false), "Only show failing tests and the summary (env: LOXSPEC_QUIET)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("LOXSPEC_NO_COLOR", false), "Disable colored output (env: LOXSPEC_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("LOXSPEC_OUTPUT", "console"), "Output format: console, json, junit, tap (env: LOXSPEC_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("LOXSPEC_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: LOXSPEC_OUTPUT_FILE)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("LOXSPEC_BAIL", false), "Stop on first failure (env: LOXSPEC_BAIL)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("LOXSPEC_TIMEOUT", config.DefaultTimeout.String()), "Time limit per test file (e.g., 5s, 1m) (env: LOXSPEC_TIMEOUT)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show which files would run without executing them")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", getEnvBool("LOXSPEC_PARALLEL", false), "Run test files in parallel (env: LOXSPEC_PARALLEL)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("LOXSPEC_CONCURRENCY", config.DefaultConcurrency), "Number of interpreters running at once in parallel mode (env: LOXSPEC_CONCURRENCY)")
	runCmd.Flags().Float64Var(&rateFlag, "rate", getEnvFloat("LOXSPEC_RATE", 0), "Maximum interpreter launches per second, 0 for no limit (env: LOXSPEC_RATE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch test files and the interpreter and re-run on changes")

	// History flags
	runCmd.Flags().StringVar(&historyFlag, "history", getEnvString("LOXSPEC_HISTORY", ""), "Record runs in a database, e.g. sqlite://.loxspec/history.db (env: LOXSPEC_HISTORY)")

	// Notification flags
	runCmd.Flags().StringVar(&notifyFlag, "notify", getEnvString("LOXSPEC_NOTIFY", ""), "Notification service: slack (env: LOXSPEC_NOTIFY)")
	runCmd.Flags().StringVar(&notifyOnFlag, "notify-on", getEnvString("LOXSPEC_NOTIFY_ON", "failure"), "When to notify: always, failure, success, recovery (env: LOXSPEC_NOTIFY_ON)")
	runCmd.Flags().StringVar(&slackWebhookFlag, "slack-webhook", getEnvString("SLACK_WEBHOOK", ""), "Slack webhook URL (env: SLACK_WEBHOOK)")
	runCmd.Flags().StringVar(&slackChannelFlag, "slack-channel", getEnvString("SLACK_CHANNEL", ""), "Slack channel override (env: SLACK_CHANNEL)")
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatHeader(version string)
	FormatStart(total int)
	FormatResult(result *runner.TestResult)
	FormatError(err error)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(report *runner.Report) error
}

// deltaFormatter is implemented by formatters that can show changes since
// the previous recorded run
type deltaFormatter interface {
	FormatDelta(regressed, fixed []string)
}

func newFormatter(s *runSettings, w io.Writer) Formatter {
	switch s.Output {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w))
	case "junit":
		return output.NewJUnitFormatter(output.JUnitWithWriter(w))
	case "tap":
		return output.NewTAPFormatter(output.TAPWithWriter(w))
	default: // "console"
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(s.Verbose),
			output.WithQuiet(s.Quiet),
			output.WithNoColor(s.NoColor),
		)
	}
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
}

// session holds what stays the same across the runs of one invocation
type session struct {
	settings *runSettings
	runner   *runner.Runner
	out      io.Writer
	info     io.Writer
	store    *history.Store
	notifier *notify.Manager
}

func runCommand(cmd *cobra.Command, args []string) error {
	s, err := resolveRunSettings(cmd.Flags(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if s.OutputFile != "" {
		f, err := os.Create(s.OutputFile)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	// informational messages go where they cannot corrupt a report
	info := out
	if s.Output != "console" {
		info = cmd.ErrOrStderr()
	}

	if s.DryRun {
		return dryRun(s, info)
	}

	interpEnv, err := env.ForInterpreter(s.EnvFile)
	if err != nil {
		return err
	}

	r := runner.NewRunner(&runner.Config{
		Interpreter:   interpreterPath(s.Interpreter),
		Timeout:       s.Timeout,
		Env:           interpEnv,
		WorkDir:       s.WorkDir,
		Bail:          s.Bail,
		Parallel:      s.Parallel,
		Concurrency:   s.Concurrency,
		Rate:          s.Rate,
		WarnConflicts: s.Verbose,
	})
	r.SetWarnFunc(warnf)

	if err := r.CheckInterpreter(); err != nil {
		formatter := output.NewConsoleFormatter(output.WithWriter(info), output.WithNoColor(s.NoColor))
		if errors.Is(err, interp.ErrInterpreterNotFound) {
			formatter.FormatError(fmt.Errorf("%s executable not found. Run 'make' first.", filepath.Base(s.Interpreter)))
		} else {
			formatter.FormatError(err)
		}
		return &exitError{code: ExitTestFailure}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := &session{settings: s, runner: r, out: out, info: info}

	if s.History != "" {
		store, err := history.Open(ctx, s.History)
		if err != nil {
			warnf("history disabled: %v", err)
		} else {
			defer store.Close()
			sess.store = store
		}
	}

	if s.Notify == "slack" {
		var opts []notify.SlackOption
		if s.SlackChannel != "" {
			opts = append(opts, notify.WithSlackChannel(s.SlackChannel))
		}
		sess.notifier = notify.NewManager(s.NotifyOn, notify.NewSlackNotifier(s.SlackWebhook, opts...))
	}

	ok, err := sess.runOnce(ctx)
	if err != nil {
		return err
	}

	if s.Watch {
		return sess.watch(ctx)
	}

	if !ok {
		return &exitError{code: ExitTestFailure}
	}
	return nil
}

// discover finds the test files of a run. A missing default test
// directory counts as an empty corpus.
func discover(s *runSettings) ([]runner.TestFile, error) {
	paths := s.Paths
	if s.DefaultPaths {
		if _, err := os.Stat(paths[0]); errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
	}

	files, err := runner.Discover(paths, s.Extensions)
	if err != nil {
		return nil, err
	}
	return runner.FilterByName(files, s.NameFilter), nil
}

func noTestsMessage(s *runSettings, w io.Writer) {
	fmt.Fprintf(w, "No test files found in %s\n", strings.Join(displayPaths(s.Paths), ", "))
	fmt.Fprintf(w, "Create %s files with '// expect:' comments to add tests.\n", s.Extensions[0])
}

func displayPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if info, err := os.Stat(p); err != nil || info.IsDir() {
			p = strings.TrimSuffix(filepath.ToSlash(p), "/") + "/"
		}
		out[i] = p
	}
	return out
}

func dryRun(s *runSettings, w io.Writer) error {
	files, err := discover(s)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		noTestsMessage(s, w)
		return nil
	}
	for _, f := range files {
		fmt.Fprintf(w, "Would run: %s\n", f.Name)
	}
	fmt.Fprintf(w, "\n%d test file(s) with %s\n", len(files), s.Interpreter)
	return nil
}

// runOnce runs the corpus and reports it. It returns whether every test
// passed.
func (sess *session) runOnce(ctx context.Context) (bool, error) {
	s := sess.settings

	files, err := discover(s)
	if err != nil {
		return false, err
	}
	if len(files) == 0 {
		noTestsMessage(s, sess.info)
		return true, nil
	}

	formatter := newFormatter(s, sess.out)
	formatter.FormatHeader(version)
	formatter.FormatStart(len(files))

	sess.runner.SetResultFunc(formatter.FormatResult)
	report := sess.runner.Run(ctx, files)

	if flushable, ok := formatter.(Flushable); ok {
		if err := flushable.Flush(report); err != nil {
			return false, fmt.Errorf("error writing output: %w", err)
		}
	}

	sess.afterRun(ctx, report, formatter)
	return report.OK(), nil
}

// afterRun records the run and sends notifications. Problems here are
// warnings and never change the outcome of the run.
func (sess *session) afterRun(ctx context.Context, report *runner.Report, formatter Formatter) {
	if sess.store == nil && sess.notifier == nil {
		return
	}

	stamp := history.GitStamp(gitDir(sess.settings))
	var summary *notify.RunSummary
	if sess.notifier != nil {
		summary = notify.NewRunSummary(report, sess.settings.Interpreter)
		summary.Commit = stamp.Commit
		summary.Branch = stamp.Branch
	}

	if sess.store != nil {
		run := history.FromReport(report, stamp)
		prev, err := sess.store.Previous(ctx, run.ID)
		if err != nil {
			warnf("failed to read previous run: %v", err)
		}
		if err := sess.store.Record(ctx, run); err != nil {
			warnf("failed to record run: %v", err)
		}

		if prev != nil {
			delta := history.Compare(prev, run)
			if df, ok := formatter.(deltaFormatter); ok {
				df.FormatDelta(delta.Regressed, delta.Fixed)
			}
			if summary != nil {
				failed := prev.Failed > 0
				summary.PreviousFailed = &failed
				summary.Regressions = delta.Regressed
			}
		}
	}

	if sess.notifier != nil {
		if _, err := sess.notifier.Notify(ctx, summary); err != nil {
			warnf("failed to send notification: %v", err)
		}
	}
}

func gitDir(s *runSettings) string {
	if s.WorkDir != "" {
		return s.WorkDir
	}
	return "."
}
