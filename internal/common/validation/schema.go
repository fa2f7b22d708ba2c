// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// projectConfigSchema pins the machine-readable project config shape that
// downstream tooling depends on. Field names and nesting are a contract;
// a run never completes with a config document that fails this schema.
const projectConfigSchema = `{
  "type": "object",
  "required": ["tier", "template", "features", "license", "generatedAt"],
  "additionalProperties": false,
  "properties": {
    "tier": { "type": "string", "minLength": 1 },
    "template": { "type": ["string", "null"] },
    "features": {
      "type": "array",
      "items": { "type": "string", "minLength": 1 }
    },
    "license": {
      "type": "object",
      "required": ["key", "orderNumber", "customerEmail", "issuedAt"],
      "additionalProperties": false,
      "properties": {
        "key": { "type": "string" },
        "orderNumber": { "type": "string", "minLength": 1 },
        "customerEmail": { "type": "string" },
        "issuedAt": { "type": "string" }
      }
    },
    "generatedAt": { "type": "string" }
  }
}`

// ValidateProjectConfig validates a generated project config document
// against the pinned schema.
func ValidateProjectConfig(doc []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(projectConfigSchema)
	documentLoader := gojsonschema.NewBytesLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("config validation failed to run: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("config document invalid: %s", strings.Join(msgs, "; "))
}
