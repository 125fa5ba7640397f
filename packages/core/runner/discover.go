package runner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TestFile is a discovered test file. Name is the path relative to the
// directory it was found under, with forward slashes.
type TestFile struct {
	Name string
	Path string
}

// Discover collects test files from paths. Directories are walked
// recursively for files with one of the given extensions; files named
// explicitly are always included. Results from each directory are sorted
// by name and duplicates are dropped.
func Discover(paths []string, extensions []string) ([]TestFile, error) {
	var files []TestFile
	seen := make(map[string]bool)

	add := func(tf TestFile) {
		key := tf.Path
		if abs, err := filepath.Abs(tf.Path); err == nil {
			key = abs
		}
		if seen[key] {
			return
		}
		seen[key] = true
		files = append(files, tf)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", root, err)
		}

		if !info.IsDir() {
			add(TestFile{Name: filepath.ToSlash(filepath.Clean(root)), Path: root})
			continue
		}

		var found []TestFile
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !HasTestExtension(path, extensions) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			found = append(found, TestFile{Name: filepath.ToSlash(rel), Path: path})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}

		sort.Slice(found, func(i, j int) bool { return found[i].Name < found[j].Name })
		for _, tf := range found {
			add(tf)
		}
	}

	return files, nil
}

// HasTestExtension reports whether path ends in one of extensions
func HasTestExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// FilterByName keeps the files whose name matches pattern. An empty
// pattern keeps everything.
func FilterByName(files []TestFile, pattern string) []TestFile {
	if pattern == "" {
		return files
	}
	var kept []TestFile
	for _, f := range files {
		if matchesPattern(f.Name, pattern) {
			kept = append(kept, f)
		}
	}
	return kept
}

// matchesPattern supports "*substr*", "*suffix", "prefix*" and exact names
func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	starPrefix := strings.HasPrefix(pattern, "*")
	starSuffix := len(pattern) > 1 && strings.HasSuffix(pattern, "*")

	switch {
	case pattern == "*":
		return true
	case starPrefix && starSuffix:
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case starPrefix:
		return strings.HasSuffix(name, pattern[1:])
	case starSuffix:
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	default:
		return name == pattern
	}
}
