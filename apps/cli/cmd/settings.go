package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/config"
	"github.com/abdul-hamid-achik/loxspec/packages/notify"
	"github.com/spf13/pflag"
)

// runSettings is the effective configuration of a run: flags first, then
// LOXSPEC_* environment variables, then the config file, then defaults
type runSettings struct {
	Interpreter  string
	Paths        []string
	DefaultPaths bool
	Extensions   []string
	Timeout      time.Duration
	NameFilter   string
	Parallel     bool
	Concurrency  int
	Rate         float64
	Bail         bool
	Output       string
	OutputFile   string
	Verbose      bool
	Quiet        bool
	NoColor      bool
	EnvFile      string
	WorkDir      string
	History      string
	Notify       string
	NotifyOn     notify.NotifyOn
	SlackWebhook string
	SlackChannel string
	DryRun       bool
	Watch        bool
}

var outputFormats = []string{"console", "json", "junit", "tap"}

func resolveRunSettings(flags *pflag.FlagSet, args []string) (*runSettings, error) {
	configPath := pickString(flags, "config", configFlag, "LOXSPEC_CONFIG", "")
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	s := &runSettings{
		Interpreter: pickString(flags, "interpreter", interpreterFlag, "LOXSPEC_INTERPRETER", fileCfg.Interpreter),
		NameFilter:  nameFlag,
		Parallel:    pickBool(flags, "parallel", parallelFlag, "LOXSPEC_PARALLEL", fileCfg.GetParallel()),
		Concurrency: pickInt(flags, "concurrency", concurrencyFlag, "LOXSPEC_CONCURRENCY", fileCfg.Concurrency),
		Rate:        pickFloat(flags, "rate", rateFlag, "LOXSPEC_RATE", fileCfg.Rate),
		Bail:        pickBool(flags, "bail", bailFlag, "LOXSPEC_BAIL", fileCfg.GetBail()),
		Output:      strings.ToLower(pickString(flags, "output", outputFlag, "LOXSPEC_OUTPUT", fileCfg.Output)),
		OutputFile:  pickString(flags, "output-file", outputFileFlag, "LOXSPEC_OUTPUT_FILE", ""),
		Verbose:     pickBool(flags, "verbose", verboseFlag > 0, "LOXSPEC_VERBOSE", fileCfg.GetVerbose()),
		Quiet:       pickBool(flags, "quiet", quietFlag, "LOXSPEC_QUIET", false),
		NoColor:     pickBool(flags, "no-color", noColorFlag, "LOXSPEC_NO_COLOR", fileCfg.GetNoColor()),
		EnvFile:     pickString(flags, "env-file", envFileFlag, "LOXSPEC_ENV_FILE", fileCfg.EnvFile),
		WorkDir:     pickString(flags, "work-dir", workDirFlag, "LOXSPEC_WORK_DIR", fileCfg.WorkDir),
		History:     pickString(flags, "history", historyFlag, "LOXSPEC_HISTORY", fileCfg.History),
		DryRun:      dryRunFlag,
		Watch:       watchFlag,
	}

	timeoutStr := pickString(flags, "timeout", timeoutFlag, "LOXSPEC_TIMEOUT", fileCfg.Timeout)
	s.Timeout, err = time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 5s, 1m, 500ms)", timeoutStr, err)
	}
	if s.Timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout value %q: must be positive", timeoutStr)
	}

	exts := fileCfg.Extensions
	if flags.Changed("ext") {
		exts = extFlag
	} else if v := os.Getenv("LOXSPEC_EXT"); v != "" {
		exts = strings.Split(v, ",")
	}
	s.Extensions = normalizeExtensions(exts)
	if len(s.Extensions) == 0 {
		s.Extensions = append([]string(nil), config.DefaultExtensions...)
	}

	if len(args) > 0 {
		s.Paths = args
	} else {
		s.Paths = []string{fileCfg.TestDir}
		s.DefaultPaths = true
	}

	if !isOutputFormat(s.Output) {
		return nil, fmt.Errorf("unknown output format %q (use %s)", s.Output, strings.Join(outputFormats, ", "))
	}
	if s.Concurrency <= 0 {
		s.Concurrency = config.DefaultConcurrency
	}
	if s.Quiet {
		s.Verbose = false
	}

	var fileNotify config.NotifyConfig
	if fileCfg.Notify != nil {
		fileNotify = *fileCfg.Notify
	}
	s.Notify = strings.ToLower(pickString(flags, "notify", notifyFlag, "LOXSPEC_NOTIFY", fileNotify.Service))
	s.SlackWebhook = pickString(flags, "slack-webhook", slackWebhookFlag, "SLACK_WEBHOOK", fileNotify.SlackWebhook)
	s.SlackChannel = pickString(flags, "slack-channel", slackChannelFlag, "SLACK_CHANNEL", fileNotify.SlackChannel)
	s.NotifyOn, err = notify.ParseNotifyOn(pickString(flags, "notify-on", notifyOnFlag, "LOXSPEC_NOTIFY_ON", fileNotify.On))
	if err != nil {
		return nil, err
	}
	switch s.Notify {
	case "":
	case "slack":
		if s.SlackWebhook == "" {
			return nil, fmt.Errorf("--slack-webhook is required when using --notify slack")
		}
	default:
		return nil, fmt.Errorf("unknown notification service %q (use slack)", s.Notify)
	}

	return s, nil
}

// loadProjectConfig loads the config named by LOXSPEC_CONFIG, or the one
// found in the current directory
func loadProjectConfig() (*config.Config, error) {
	return config.LoadConfig(getEnvString("LOXSPEC_CONFIG", ""))
}

// interpreterPath makes a relative interpreter path absolute so it keeps
// working when the interpreter runs in another directory. Bare names are
// left for PATH lookup.
func interpreterPath(p string) string {
	if !strings.ContainsRune(p, '/') && !strings.ContainsRune(p, filepath.Separator) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func normalizeExtensions(exts []string) []string {
	var out []string
	for _, e := range exts {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

func isOutputFormat(s string) bool {
	for _, f := range outputFormats {
		if s == f {
			return true
		}
	}
	return false
}

func pickString(flags *pflag.FlagSet, name, flagVal, envKey, fileVal string) string {
	if flags.Changed(name) {
		return flagVal
	}
	return getEnvString(envKey, fileVal)
}

func pickBool(flags *pflag.FlagSet, name string, flagVal bool, envKey string, fileVal bool) bool {
	if flags.Changed(name) {
		return flagVal
	}
	return getEnvBool(envKey, fileVal)
}

func pickInt(flags *pflag.FlagSet, name string, flagVal int, envKey string, fileVal int) int {
	if flags.Changed(name) {
		return flagVal
	}
	return getEnvInt(envKey, fileVal)
}

func pickFloat(flags *pflag.FlagSet, name string, flagVal float64, envKey string, fileVal float64) float64 {
	if flags.Changed(name) {
		return flagVal
	}
	return getEnvFloat(envKey, fileVal)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
