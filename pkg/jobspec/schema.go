package jobspec

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/sjson"
	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"

	"github.com/bacalhau-project/cryri/pkg/lib/marshaller"
	"github.com/bacalhau-project/cryri/pkg/models"
)

const schemaDraft = "http://json-schema.org/draft-07/schema#"

// GenerateJSONSchema returns the JSON schema of a job file.
func GenerateJSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(&JobConfig{})
	schemaData, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error indenting %s", err)
	}

	patches := []struct {
		Path  string
		Value interface{}
	}{
		{Path: "$schema", Value: schemaDraft},
		{Path: "properties.cloud.properties.priority.type", Value: "string"},
		{Path: "properties.cloud.properties.priority.enum", Value: models.PriorityNames()},
		// yaml scalars such as 8080 or true are accepted as environment values
		{Path: "properties.container.properties.environment", Value: map[string]interface{}{
			"type":                 "object",
			"additionalProperties": map[string]interface{}{"type": []string{"string", "number", "boolean"}},
		}},
	}
	jsonString := string(schemaData)
	for _, patch := range patches {
		jsonString, err = sjson.Set(jsonString, patch.Path, patch.Value)
		if err != nil {
			return nil, fmt.Errorf("patching schema at %s: %w", patch.Path, err)
		}
	}
	return []byte(jsonString), nil
}

// ValidateSchema checks a YAML or JSON job file against the job schema and
// returns one description per violation. An empty result means the file is
// valid.
func ValidateSchema(b []byte) ([]string, error) {
	if err := marshaller.CheckSize(b); err != nil {
		return nil, err
	}
	schemaData, err := GenerateJSONSchema()
	if err != nil {
		return nil, err
	}
	// gojsonschema only reads JSON; this is a no-op for JSON input
	documentData, err := yaml.YAMLToJSON(b)
	if err != nil {
		return nil, fmt.Errorf("error converting yaml to json: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaData),
		gojsonschema.NewBytesLoader(documentData),
	)
	if err != nil {
		return nil, fmt.Errorf("error validating json: %w", err)
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}
