package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
	"github.com/abdul-hamid-achik/loxspec/packages/core/verify"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func makeRun(id string, started time.Time, outcomes map[string]bool, order ...string) *Run {
	run := &Run{ID: id, StartedAt: started, Duration: time.Second}
	for _, name := range order {
		passed := outcomes[name]
		rec := TestRecord{Name: name, Passed: passed, Duration: 10 * time.Millisecond}
		if !passed {
			rec.Reason = "exit_code"
			rec.Message = "Expected success (exit 0), got exit 70"
			run.Failed++
		} else {
			run.Passed++
		}
		run.Total++
		run.Results = append(run.Results, rec)
	}
	return run
}

func TestParseConnectionString(t *testing.T) {
	tests := []struct {
		input   string
		driver  string
		dsn     string
		wantErr bool
	}{
		{"sqlite://./history.db", "sqlite3", "./history.db", false},
		{"sqlite:history.db", "sqlite3", "history.db", false},
		{"postgres://u:p@localhost:5432/lox", "postgres", "postgres://u:p@localhost:5432/lox", false},
		{"mysql://u:p@localhost/lox", "mysql", "u:p@tcp(localhost:3306)/lox", false},
		{"mysql://u:p@db:3307/lox?parseTime=true", "mysql", "u:p@tcp(db:3307)/lox?parseTime=true", false},
		{"redis://localhost", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			driver, dsn, err := parseConnectionString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: "postgres"}
	assert.Equal(t, "SELECT $1, $2", pg.rebind("SELECT ?, ?"))

	lite := &Store{driver: "sqlite3"}
	assert.Equal(t, "SELECT ?, ?", lite.rebind("SELECT ?, ?"))
}

func TestStore_RecordAndQuery(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := makeRun("run-1", base, map[string]bool{"a.lox": true, "b.lox": false}, "a.lox", "b.lox")
	first.Commit = "abc123"
	first.Branch = "main"
	second := makeRun("run-2", base.Add(time.Minute), map[string]bool{"a.lox": false, "b.lox": true}, "a.lox", "b.lox")

	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))

	t.Run("recent newest first", func(t *testing.T) {
		runs, err := store.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "run-2", runs[0].ID)
		assert.Equal(t, "run-1", runs[1].ID)
		assert.Equal(t, "abc123", runs[1].Commit)
		assert.Equal(t, "main", runs[1].Branch)
		assert.Equal(t, 2, runs[1].Total)
		assert.True(t, runs[1].StartedAt.Equal(base))
	})

	t.Run("recent limit", func(t *testing.T) {
		runs, err := store.Recent(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, runs, 1)
	})

	t.Run("results keep order", func(t *testing.T) {
		results, err := store.Results(ctx, "run-1")
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "a.lox", results[0].Name)
		assert.True(t, results[0].Passed)
		assert.False(t, results[1].Passed)
		assert.Equal(t, "exit_code", results[1].Reason)
	})

	t.Run("previous of recorded run", func(t *testing.T) {
		prev, err := store.Previous(ctx, "run-2")
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, "run-1", prev.ID)
		assert.Len(t, prev.Results, 2)
	})

	t.Run("previous of unrecorded run", func(t *testing.T) {
		prev, err := store.Previous(ctx, "run-3")
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.Equal(t, "run-2", prev.ID)
	})

	t.Run("no previous", func(t *testing.T) {
		prev, err := store.Previous(ctx, "run-1")
		require.NoError(t, err)
		assert.Nil(t, prev)
	})
}

func TestStore_DuplicateRunID(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	run := makeRun("dup", time.Now(), map[string]bool{"a.lox": true}, "a.lox")

	require.NoError(t, store.Record(ctx, run))
	assert.Error(t, store.Record(ctx, run))

	results, err := store.Results(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestCompare(t *testing.T) {
	prev := makeRun("1", time.Now(), map[string]bool{"a.lox": true, "b.lox": false, "c.lox": true}, "a.lox", "b.lox", "c.lox")
	cur := makeRun("2", time.Now(), map[string]bool{"a.lox": false, "b.lox": true, "c.lox": true, "d.lox": false}, "a.lox", "b.lox", "c.lox", "d.lox")

	d := Compare(prev, cur)
	assert.Equal(t, []string{"a.lox"}, d.Regressed)
	assert.Equal(t, []string{"b.lox"}, d.Fixed)
	assert.True(t, d.Changed())

	assert.False(t, Compare(nil, cur).Changed())
	assert.False(t, Compare(cur, cur).Changed())
}

func TestFromReport(t *testing.T) {
	report := &runner.Report{
		RunID:     "abc",
		StartedAt: time.Now(),
		Duration:  time.Second,
		Results: []*runner.TestResult{
			{Name: "a.lox", Verdict: verify.Pass()},
			{Name: "b.lox", Verdict: verify.TimedOut(5 * time.Second)},
		},
		Passed: 1,
		Failed: 1,
	}

	run := FromReport(report, Stamp{Commit: "deadbeef", Branch: "main"})
	assert.Equal(t, "abc", run.ID)
	assert.Equal(t, 2, run.Total)
	assert.Equal(t, "deadbeef", run.Commit)
	require.Len(t, run.Results, 2)
	assert.True(t, run.Results[0].Passed)
	assert.Equal(t, "timeout", run.Results[1].Reason)
}

func TestGitStamp(t *testing.T) {
	t.Run("not a repository", func(t *testing.T) {
		assert.Equal(t, Stamp{}, GitStamp(t.TempDir()))
	})

	t.Run("repository head", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := git.PlainInit(dir, false)
		require.NoError(t, err)
		worktree, err := repo.Worktree()
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lox"), []byte("print 1; // expect: 1\n"), 0644))
		_, err = worktree.Add("a.lox")
		require.NoError(t, err)
		hash, err := worktree.Commit("init", &git.CommitOptions{
			Author: &object.Signature{Name: "loxspec", Email: "loxspec@example.com", When: time.Now()},
		})
		require.NoError(t, err)

		sub := filepath.Join(dir, "test", "integration")
		require.NoError(t, os.MkdirAll(sub, 0755))

		stamp := GitStamp(sub)
		assert.Equal(t, hash.String(), stamp.Commit)
		assert.NotEmpty(t, stamp.Branch)
	})
}
