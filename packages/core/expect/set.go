package expect

import (
	"fmt"
	"os"
)

// FailureKind is the failure a test file expects from the interpreter.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureCompile
	FailureRuntime
)

func (k FailureKind) String() string {
	switch k {
	case FailureCompile:
		return "compile error"
	case FailureRuntime:
		return "runtime error"
	default:
		return "none"
	}
}

// Failure is the expected failure outcome. Message is only meaningful for
// FailureRuntime.
type Failure struct {
	Kind    FailureKind
	Message string
}

// Set is the parsed contract for one test file. A Set is built once by
// Extract and is not modified afterwards.
type Set struct {
	// Output holds the expected stdout lines in file order.
	Output  []string
	Failure Failure
}

// ExpectsFailure reports whether the file declares a compile or runtime error.
func (s *Set) ExpectsFailure() bool {
	return s.Failure.Kind != FailureNone
}

// HasConflict reports whether the file declares both output lines and a
// failure kind. Verification ignores the output lines in that case.
func (s *Set) HasConflict() bool {
	return s.ExpectsFailure() && len(s.Output) > 0
}

// IsEmpty reports whether the file carries no annotations at all, which
// means it expects silent success.
func (s *Set) IsEmpty() bool {
	return !s.ExpectsFailure() && len(s.Output) == 0
}

// Reduce folds classified annotations into a Set. Output annotations
// accumulate in order; compile and runtime error annotations overwrite any
// earlier failure kind.
func Reduce(annotations []Annotation) *Set {
	set := &Set{Output: []string{}}

	for _, a := range annotations {
		switch a.Kind {
		case KindOutput:
			set.Output = append(set.Output, a.Text)
		case KindCompileError:
			set.Failure = Failure{Kind: FailureCompile}
		case KindRuntimeError:
			set.Failure = Failure{Kind: FailureRuntime, Message: a.Text}
		}
	}

	return set
}

// Extract builds the expectation set for a test file's text. It never
// fails: text without annotations yields an empty Set.
func Extract(text string) *Set {
	return Reduce(Scan(text))
}

// ExtractFile reads path and extracts its expectations.
func ExtractFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading test file: %w", err)
	}
	return Extract(string(data)), nil
}
