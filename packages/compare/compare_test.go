package compare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report1 = `{
  "runId": "one",
  "summary": {"total": 4, "passed": 2, "failed": 2},
  "tests": [
    {"name": "a.lox", "file": "test/integration/a.lox", "passed": true, "duration": 10},
    {"name": "b.lox", "file": "test/integration/b.lox", "passed": false, "reason": "exit_code", "duration": 10},
    {"name": "c.lox", "file": "test/integration/c.lox", "passed": true, "duration": 100},
    {"name": "gone.lox", "file": "test/integration/gone.lox", "passed": false, "duration": 5}
  ],
  "duration": 125
}`

const report2 = `{
  "runId": "two",
  "tests": [
    {"name": "a.lox", "passed": false, "reason": "line_mismatch", "duration": 10},
    {"name": "b.lox", "passed": true, "duration": 10},
    {"name": "c.lox", "passed": true, "duration": 150},
    {"name": "fresh.lox", "passed": true, "duration": 3}
  ],
  "duration": 173
}`

func TestParse(t *testing.T) {
	r, err := Parse([]byte(report1))
	require.NoError(t, err)
	assert.Equal(t, "one", r.RunID)
	assert.Equal(t, 125.0, r.Duration)
	require.Len(t, r.Tests, 4)
	assert.Equal(t, TestEntry{Name: "b.lox", Passed: false, Reason: "exit_code", Duration: 10}, r.Tests[1])

	t.Run("invalid json", func(t *testing.T) {
		_, err := Parse([]byte(`{"tests": [`))
		assert.Error(t, err)
	})

	t.Run("missing tests", func(t *testing.T) {
		_, err := Parse([]byte(`{"summary": {}}`))
		assert.Error(t, err)
	})

	t.Run("unnamed test", func(t *testing.T) {
		_, err := Parse([]byte(`{"tests": [{"passed": true}]}`))
		assert.Error(t, err)
	})
}

func TestCompare(t *testing.T) {
	r1, err := Parse([]byte(report1))
	require.NoError(t, err)
	r2, err := Parse([]byte(report2))
	require.NoError(t, err)

	result := Compare("one.json", "two.json", r1, r2, 20)

	statuses := make(map[string]Status)
	var order []string
	for _, c := range result.Comparisons {
		statuses[c.Name] = c.Status
		order = append(order, c.Name)
	}

	assert.Equal(t, []string{"a.lox", "b.lox", "c.lox", "fresh.lox", "gone.lox"}, order)
	assert.Equal(t, StatusRegressed, statuses["a.lox"])
	assert.Equal(t, StatusFixed, statuses["b.lox"])
	assert.Equal(t, StatusUnchanged, statuses["c.lox"])
	assert.Equal(t, StatusNew, statuses["fresh.lox"])
	assert.Equal(t, StatusRemoved, statuses["gone.lox"])

	assert.Equal(t, Summary{
		Total: 5, Fixed: 1, Regressed: 1, Unchanged: 1, New: 1, Removed: 1, Slower: 1,
		TotalDuration1: 125, TotalDuration2: 173, Threshold: 20,
	}, result.Summary)
	assert.True(t, result.HasRegressions())
	assert.True(t, result.ThresholdExceeded())

	c := result.Comparisons[2]
	assert.InDelta(t, 50.0, c.DurationChange, 0.001)
	assert.True(t, c.Slower)
}

func TestCompare_NoThreshold(t *testing.T) {
	r1, err := Parse([]byte(report1))
	require.NoError(t, err)

	result := Compare("a", "b", r1, r1, 0)
	assert.False(t, result.HasRegressions())
	assert.False(t, result.ThresholdExceeded())
	assert.Equal(t, 4, result.Summary.Unchanged)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(report2), 0644))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, r.Tests, 4)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseThreshold(t *testing.T) {
	v, err := ParseThreshold("10%")
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	v, err = ParseThreshold(" 2.5 ")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = ParseThreshold("fast")
	assert.Error(t, err)
	_, err = ParseThreshold("-1")
	assert.Error(t, err)
}
