package summarizer

import (
	"encoding/json"
	"fmt"

	"github.com/Nephrolytics-ai/audio-summarizer/pkg/model"
	"github.com/Nephrolytics-ai/audio-summarizer/pkg/utils"
	"github.com/invopop/jsonschema"
)

// OutputSchema reflects model.SummaryResult into a JSON schema map and attaches
// language-specific property descriptions.
func OutputSchema(language string) (map[string]any, error) {
	schema, err := generateJSONSchema[model.SummaryResult]()
	if err != nil {
		return nil, err
	}
	delete(schema, "$schema")
	delete(schema, "$id")

	language = resolveLanguage(language)
	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil, utils.WrapIfNotNil(fmt.Errorf("summary schema has no properties"))
	}
	describe(properties, "summary", fmt.Sprintf("A 2-5 line summary of the audio in %s.", language))
	describe(properties, "replies", fmt.Sprintf("An array of 3 short, possible replies in %s.", language))
	return schema, nil
}

func describe(properties map[string]any, name string, description string) {
	if property, ok := properties[name].(map[string]any); ok {
		property["description"] = description
	}
}

func generateJSONSchema[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	var value T
	schema := reflector.Reflect(value)

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	var schemaMap map[string]any
	err = json.Unmarshal(schemaJSON, &schemaMap)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return schemaMap, nil
}
