// schema.go - Strict JSON-Schema check for model output

package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// buildExpenseSchema returns the JSON-Schema (draft 2020-12 subset) an ideal
// model response satisfies. Objects that validate are decoded directly;
// everything else goes through lenient per-field coercion.
func buildExpenseSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"amount": map[string]interface{}{"type": "number", "minimum": 0},
			"vendor": map[string]interface{}{"type": "string", "minLength": 1},
			"date":   map[string]interface{}{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"description": map[string]interface{}{"type": "string"},
			"category": map[string]interface{}{
				"type": "string",
				"enum": []interface{}{
					CategoryTravel, CategoryMeals, CategoryAccommodation,
					CategoryTransportation, CategorySupplies, CategoryEquipment,
					CategoryTraining, CategoryOther,
				},
			},
			"confidence":      map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 100},
			"project_mention": map[string]interface{}{"type": "boolean"},
			"project_name":    map[string]interface{}{"type": []interface{}{"string", "null"}},
			"project_code":    map[string]interface{}{"type": []interface{}{"string", "null"}},
		},
		"required": []interface{}{"amount", "vendor", "date", "description", "category", "confidence"},
	}
}

var compiledExpenseSchema = mustCompile(buildExpenseSchema())

func mustCompile(schemaMap map[string]interface{}) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("expense.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema: %v", err))
	}
	schema, err := compiler.Compile("expense.json")
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

// ValidateAgainstSchema validates a parsed model object against the strict
// expense schema.
func ValidateAgainstSchema(value map[string]interface{}) error {
	// Round-trip through encoding/json so json.Number and other decoder
	// artifacts become plain interface values the validator understands.
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	if err := compiledExpenseSchema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
