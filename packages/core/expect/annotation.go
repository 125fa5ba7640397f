package expect

import (
	"regexp"
	"strings"
)

// Kind identifies the annotation recognized on a line.
type Kind int

const (
	KindOutput Kind = iota
	KindCompileError
	KindRuntimeError
)

func (k Kind) String() string {
	switch k {
	case KindOutput:
		return "output"
	case KindCompileError:
		return "compile error"
	case KindRuntimeError:
		return "runtime error"
	default:
		return "unknown"
	}
}

// Annotation is a single marker found in a test file.
type Annotation struct {
	Kind Kind
	// Text is the captured remainder of the line for output and runtime
	// error annotations. Empty for compile error annotations.
	Text string
	// Line is the 1-based line number the annotation was found on.
	Line int
}

var (
	outputPattern       = regexp.MustCompile(`//\s*expect\s*: ?(.*)`)
	compileErrorPattern = regexp.MustCompile(`//\s*expect compile error`)
	runtimeErrorPattern = regexp.MustCompile(`//\s*expect runtime error: ?(.*)`)
)

// Classify returns the annotations recognized on a single line, in
// recognition order: output, compile error, runtime error. The markers are
// distinct substrings so a line normally yields zero or one annotation.
func Classify(line string) []Annotation {
	var found []Annotation

	if m := outputPattern.FindStringSubmatch(line); m != nil {
		found = append(found, Annotation{Kind: KindOutput, Text: m[1]})
	}

	if compileErrorPattern.MatchString(line) {
		found = append(found, Annotation{Kind: KindCompileError})
	}

	if m := runtimeErrorPattern.FindStringSubmatch(line); m != nil {
		found = append(found, Annotation{Kind: KindRuntimeError, Text: m[1]})
	}

	return found
}

// Scan classifies every line of text and returns the annotations in file
// order with their line numbers set. Lines are split on "\n"; a "\r" left
// at the end of a line by CRLF endings is dropped.
func Scan(text string) []Annotation {
	var annotations []Annotation

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		for _, a := range Classify(line) {
			a.Line = i + 1
			annotations = append(annotations, a)
		}
	}

	return annotations
}
