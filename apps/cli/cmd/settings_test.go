package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/config"
	"github.com/abdul-hamid-achik/loxspec/packages/notify"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestFlags registers the flags settings resolution looks at on a fresh
// flag set, resetting the bound variables to their defaults
func newTestFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringVarP(&interpreterFlag, "interpreter", "i", config.DefaultInterpreter, "")
	fs.StringVar(&configFlag, "config", "", "")
	fs.StringVar(&timeoutFlag, "timeout", config.DefaultTimeout.String(), "")
	fs.BoolVarP(&parallelFlag, "parallel", "p", false, "")
	fs.BoolVarP(&quietFlag, "quiet", "q", false, "")
	fs.CountVarP(&verboseFlag, "verbose", "v", "")
	fs.StringVarP(&outputFlag, "output", "o", "console", "")
	fs.StringSliceVar(&extFlag, "ext", config.DefaultExtensions, "")
	fs.StringVar(&notifyFlag, "notify", "", "")
	fs.StringVar(&notifyOnFlag, "notify-on", "failure", "")
	fs.StringVar(&slackWebhookFlag, "slack-webhook", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestResolveRunSettings_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := resolveRunSettings(newTestFlags(t), nil)
	require.NoError(t, err)

	assert.Equal(t, "./clox", s.Interpreter)
	assert.Equal(t, []string{"test/integration"}, s.Paths)
	assert.True(t, s.DefaultPaths)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, []string{".lox"}, s.Extensions)
	assert.Equal(t, "console", s.Output)
	assert.Equal(t, config.DefaultConcurrency, s.Concurrency)
	assert.Equal(t, notify.NotifyFailure, s.NotifyOn)
	assert.False(t, s.Parallel)
}

func TestResolveRunSettings_Precedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".loxspec.yaml"), []byte(`
interpreter: ./build/clox
timeout: 10s
parallel: true
testDir: tests
`), 0644))

	t.Run("file over defaults", func(t *testing.T) {
		s, err := resolveRunSettings(newTestFlags(t), nil)
		require.NoError(t, err)
		assert.Equal(t, "./build/clox", s.Interpreter)
		assert.Equal(t, 10*time.Second, s.Timeout)
		assert.True(t, s.Parallel)
		assert.Equal(t, []string{"tests"}, s.Paths)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("LOXSPEC_TIMEOUT", "7s")
		t.Setenv("LOXSPEC_PARALLEL", "false")
		s, err := resolveRunSettings(newTestFlags(t), nil)
		require.NoError(t, err)
		assert.Equal(t, 7*time.Second, s.Timeout)
		assert.False(t, s.Parallel)
	})

	t.Run("flag over env", func(t *testing.T) {
		t.Setenv("LOXSPEC_TIMEOUT", "7s")
		s, err := resolveRunSettings(newTestFlags(t, "--timeout", "2s", "-i", "jlox"), []string{"a.lox"})
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, s.Timeout)
		assert.Equal(t, "jlox", s.Interpreter)
		assert.Equal(t, []string{"a.lox"}, s.Paths)
		assert.False(t, s.DefaultPaths)
	})
}

func TestResolveRunSettings_Errors(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SLACK_WEBHOOK", "")

	tests := []struct {
		name string
		args []string
	}{
		{"bad timeout", []string{"--timeout", "soon"}},
		{"zero timeout", []string{"--timeout", "0s"}},
		{"bad output", []string{"-o", "html"}},
		{"slack without webhook", []string{"--notify", "slack"}},
		{"unknown service", []string{"--notify", "pager", "--slack-webhook", "x"}},
		{"bad notify-on", []string{"--notify-on", "sometimes"}},
		{"missing config", []string{"--config", "nope.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveRunSettings(newTestFlags(t, tt.args...), nil)
			assert.Error(t, err)
		})
	}
}

func TestResolveRunSettings_QuietWinsOverVerbose(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := resolveRunSettings(newTestFlags(t, "-v", "-q"), nil)
	require.NoError(t, err)
	assert.True(t, s.Quiet)
	assert.False(t, s.Verbose)
}

func TestNormalizeExtensions(t *testing.T) {
	assert.Equal(t, []string{".lox", ".test"}, normalizeExtensions([]string{"lox", " .test ", ""}))
	assert.Nil(t, normalizeExtensions(nil))
}

func TestInterpreterPath(t *testing.T) {
	assert.Equal(t, "clox", interpreterPath("clox"))

	abs := interpreterPath("./clox")
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, "clox", filepath.Base(abs))
}
