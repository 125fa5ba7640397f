package expect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []Annotation
	}{
		{
			name: "plain code",
			line: `var a = 1;`,
			want: nil,
		},
		{
			name: "output after code",
			line: `print 1 + 2; // expect: 3`,
			want: []Annotation{{Kind: KindOutput, Text: "3"}},
		},
		{
			name: "only one leading space is stripped",
			line: `print "  x"; // expect:   x`,
			want: []Annotation{{Kind: KindOutput, Text: "  x"}},
		},
		{
			name: "no space after colon",
			line: `print nil; //expect:nil`,
			want: []Annotation{{Kind: KindOutput, Text: "nil"}},
		},
		{
			name: "space before colon",
			line: `print true; // expect : true`,
			want: []Annotation{{Kind: KindOutput, Text: "true"}},
		},
		{
			name: "trailing whitespace is kept",
			line: `print "a "; // expect: a `,
			want: []Annotation{{Kind: KindOutput, Text: "a "}},
		},
		{
			name: "empty output line",
			line: `print ""; // expect:`,
			want: []Annotation{{Kind: KindOutput, Text: ""}},
		},
		{
			name: "compile error",
			line: `var = ; // expect compile error`,
			want: []Annotation{{Kind: KindCompileError}},
		},
		{
			name: "runtime error",
			line: `print x; // expect runtime error: Undefined variable 'x'.`,
			want: []Annotation{{Kind: KindRuntimeError, Text: "Undefined variable 'x'."}},
		},
		{
			name: "runtime error is not an output line",
			line: `// expect runtime error: boom`,
			want: []Annotation{{Kind: KindRuntimeError, Text: "boom"}},
		},
		{
			name: "marker without comment delimiter",
			line: `expect: 1`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.line))
		})
	}
}

func TestScan_LineNumbers(t *testing.T) {
	text := "print 1; // expect: 1\n\nprint 2; // expect: 2\r\nprint x; // expect runtime error: oops\r\n"

	got := Scan(text)
	require.Len(t, got, 3)
	assert.Equal(t, Annotation{Kind: KindOutput, Text: "1", Line: 1}, got[0])
	assert.Equal(t, Annotation{Kind: KindOutput, Text: "2", Line: 3}, got[1])
	assert.Equal(t, Annotation{Kind: KindRuntimeError, Text: "oops", Line: 4}, got[2])
}

func TestExtract_NoAnnotations(t *testing.T) {
	set := Extract("var a = 1;\nprint a;\n")

	assert.Empty(t, set.Output)
	assert.NotNil(t, set.Output)
	assert.Equal(t, FailureNone, set.Failure.Kind)
	assert.True(t, set.IsEmpty())
	assert.False(t, set.ExpectsFailure())
}

func TestExtract_OutputInFileOrder(t *testing.T) {
	set := Extract(`print 1; // expect: 1
print 2; // expect: 2
print "three"; // expect: three
`)

	assert.Equal(t, []string{"1", "2", "three"}, set.Output)
	assert.Equal(t, FailureNone, set.Failure.Kind)
}

func TestExtract_LastFailureKindWins(t *testing.T) {
	t.Run("runtime after compile", func(t *testing.T) {
		set := Extract(`// expect compile error
// expect compile error
// expect runtime error: X
`)
		only := Extract("// expect runtime error: X\n")

		assert.Equal(t, only, set)
		assert.Equal(t, Failure{Kind: FailureRuntime, Message: "X"}, set.Failure)
	})

	t.Run("compile after runtime", func(t *testing.T) {
		set := Extract(`// expect runtime error: first
// expect compile error
`)
		assert.Equal(t, Failure{Kind: FailureCompile}, set.Failure)
	})

	t.Run("repeated runtime", func(t *testing.T) {
		set := Extract(`// expect runtime error: first
// expect runtime error: second
`)
		assert.Equal(t, "second", set.Failure.Message)
	})
}

func TestExtract_Conflict(t *testing.T) {
	set := Extract(`print 1; // expect: 1
var = ; // expect compile error
`)

	assert.True(t, set.HasConflict())
	assert.Equal(t, []string{"1"}, set.Output)
	assert.Equal(t, FailureCompile, set.Failure.Kind)
}

func TestReduce_Empty(t *testing.T) {
	set := Reduce(nil)
	assert.True(t, set.IsEmpty())
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ok.lox")
	require.NoError(t, os.WriteFile(path, []byte("print 1; // expect: 1\n"), 0644))

	set, err := ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, set.Output)

	_, err = ExtractFile(filepath.Join(dir, "missing.lox"))
	assert.Error(t, err)
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "output", KindOutput.String())
	assert.Equal(t, "compile error", KindCompileError.String())
	assert.Equal(t, "runtime error", KindRuntimeError.String())
	assert.Equal(t, "none", FailureNone.String())
	assert.Equal(t, "runtime error", FailureRuntime.String())
}
