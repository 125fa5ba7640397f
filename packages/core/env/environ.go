package env

import (
	"os"
	"sort"
	"strings"
)

// Merge returns base with vars applied on top. Entries of base whose key is
// overridden are dropped; the overriding entries are appended in key order.
func Merge(base []string, vars map[string]string) []string {
	result := make([]string, 0, len(base)+len(vars))
	for _, entry := range base {
		key, _, _ := strings.Cut(entry, "=")
		if _, overridden := vars[key]; overridden {
			continue
		}
		result = append(result, entry)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		result = append(result, k+"="+vars[k])
	}
	return result
}

// ForInterpreter builds the interpreter environment: the current process
// environment plus the variables from envFile, if one is given.
func ForInterpreter(envFile string) ([]string, error) {
	if envFile == "" {
		return os.Environ(), nil
	}
	vars, err := LoadDotEnv(envFile)
	if err != nil {
		return nil, err
	}
	return Merge(os.Environ(), vars), nil
}
