package snapshot

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	schemaOnce     sync.Once
	schemaValue    *jsonschema.Schema
	resolvedSchema *jsonschema.Resolved
	schemaErr      error
)

// Schema returns the JSON Schema describing a serialized Snapshot. The
// schema is inferred from the Go types, then tightened: every integer is
// non-negative and compliance percentages are capped at 100. Callers must
// treat the returned value as read-only.
func Schema() *jsonschema.Schema {
	if err := initSchema(); err != nil {
		// Inference over fixed types only fails on a programming error.
		panic(err)
	}
	return schemaValue
}

func initSchema() error {
	schemaOnce.Do(func() {
		s, err := jsonschema.For[Snapshot](nil)
		if err != nil {
			schemaErr = fmt.Errorf("inferring snapshot schema: %w", err)
			return
		}
		s.Title = "Dashboard snapshot"
		s.Description = "Security posture summary: organizations, inventory, findings, compliance, and trends."
		tighten(s)
		if c := s.Properties["compliance"]; c != nil && c.AdditionalProperties != nil {
			c.AdditionalProperties.Maximum = float64Ptr(100)
		}
		r, err := s.Resolve(nil)
		if err != nil {
			schemaErr = fmt.Errorf("resolving snapshot schema: %w", err)
			return
		}
		schemaValue = s
		resolvedSchema = r
	})
	return schemaErr
}

// tighten walks the schema and adds a zero minimum to every integer.
func tighten(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	if isInteger(s) {
		s.Minimum = float64Ptr(0)
	}
	for _, p := range s.Properties {
		tighten(p)
	}
	tighten(s.Items)
	tighten(s.AdditionalProperties)
}

func isInteger(s *jsonschema.Schema) bool {
	if s.Type == "integer" {
		return true
	}
	for _, t := range s.Types {
		if t == "integer" {
			return true
		}
	}
	return false
}

// validateShape checks a decoded JSON instance (maps, slices, float64) against
// the snapshot schema.
func validateShape(instance any) error {
	if err := initSchema(); err != nil {
		return err
	}
	return resolvedSchema.Validate(instance)
}

func float64Ptr(v float64) *float64 { return &v }
