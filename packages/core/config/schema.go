package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps schema violations
var ErrInvalidConfig = errors.New("invalid config")

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "interpreter": {"type": "string", "minLength": 1},
    "testDir": {"type": "string", "minLength": 1},
    "extensions": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "pattern": "^\\.[A-Za-z0-9_.-]+$"}
    },
    "timeout": {"type": "string", "pattern": "^([0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"},
    "parallel": {"type": "boolean"},
    "concurrency": {"type": "integer", "minimum": 1},
    "rate": {"type": "number", "minimum": 0},
    "bail": {"type": "boolean"},
    "verbose": {"type": "boolean"},
    "noColor": {"type": "boolean"},
    "output": {"enum": ["console", "json", "junit", "tap"]},
    "envFile": {"type": "string"},
    "workDir": {"type": "string"},
    "history": {"type": "string"},
    "notify": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "service": {"enum": ["slack"]},
        "on": {"enum": ["always", "failure", "success", "recovery"]},
        "slackWebhook": {"type": "string"},
        "slackChannel": {"type": "string"}
      }
    }
  }
}`

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
})

// Validate checks a YAML config document against the config schema
func Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("loading config schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
