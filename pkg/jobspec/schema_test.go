//go:build unit || !integration

package jobspec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJSONSchema(t *testing.T) {
	data, err := GenerateJSONSchema()
	require.NoError(t, err)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, schemaDraft, schema["$schema"])

	properties := schema["properties"].(map[string]interface{})
	cloud := properties["cloud"].(map[string]interface{})["properties"].(map[string]interface{})
	priority := cloud["priority"].(map[string]interface{})
	assert.Equal(t, []interface{}{"high", "medium", "low"}, priority["enum"])
}

func TestValidateSchema(t *testing.T) {
	for _, tc := range []struct {
		name  string
		doc   string
		valid bool
	}{
		{name: "minimal", doc: minimalJob, valid: true},
		{name: "json", doc: `{"container": {"image": "cr.x/a", "command": "ls"}}`, valid: true},
		{name: "scalar env values", doc: minimalJob + "  environment:\n    PORT: 8080\n    DEBUG: true\n    NAME: x\n", valid: true},
		{name: "unknown keys", doc: minimalJob + "extra: 1\n", valid: true},
		{name: "bad priority", doc: minimalJob + "cloud:\n  priority: urgent\n"},
		{name: "missing command", doc: "container:\n  image: cr.x/a\n"},
		{name: "missing container", doc: "cloud:\n  region: SR006\n"},
		{name: "wrong type", doc: minimalJob + "cloud:\n  n_workers: two\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			violations, err := ValidateSchema([]byte(tc.doc))
			require.NoError(t, err)
			if tc.valid {
				assert.Empty(t, violations)
			} else {
				assert.NotEmpty(t, violations)
			}
		})
	}
}

func TestValidateSchemaRejectsMalformedYAML(t *testing.T) {
	_, err := ValidateSchema([]byte("container: [unclosed"))
	require.Error(t, err)
}
