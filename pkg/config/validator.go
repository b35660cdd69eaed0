package config

import (
	// blank import for embeds
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

const (
	defaultVersion  = "1.0"
	jsonschemaOneOf = "number_one_of"
	jsonschemaAnyOf = "number_any_of"
	errorString     = `There is a problem in your seropack.yaml file.
%s.`
)

//go:embed data/config_schema_v1.0.json
var schemaV1 []byte

func getSchema(version string) (gojsonschema.JSONLoader, error) {
	// Default schema
	currentSchema := schemaV1

	switch version { //nolint:gocritic
	case defaultVersion:
		currentSchema = schemaV1
	}

	return gojsonschema.NewStringLoader(string(currentSchema)), nil
}

// Validate checks raw YAML config contents against the embedded JSON schema.
func Validate(yamlConfig string, version string) error {
	j, err := yaml.YAMLToJSON([]byte(yamlConfig))
	if err != nil {
		return err
	}

	schemaLoader, err := getSchema(version)
	if err != nil {
		return err
	}
	dataLoader := gojsonschema.NewBytesLoader(j)

	return validateSchema(schemaLoader, dataLoader)
}

func validateSchema(schemaLoader, dataLoader gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return err
	}
	if result.Valid() {
		return nil
	}

	messages := []string{}
	for _, e := range result.Errors() {
		// The oneOf/anyOf errors just repeat the inner errors, skip them
		if e.Type() == jsonschemaOneOf || e.Type() == jsonschemaAnyOf {
			continue
		}
		messages = append(messages, fmt.Sprintf("- %s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf(errorString, strings.Join(messages, "\n"))
}
