package tools

import "fmt"

// validateArguments checks a call's arguments against the declared
// JSON-Schema object: required properties must be present, and values must
// match the declared primitive types. Unknown arguments are rejected when
// the schema declares its property set.
func validateArguments(schema map[string]interface{}, args map[string]interface{}) error {
	if schema == nil {
		return nil
	}

	properties, _ := schema["properties"].(map[string]interface{})

	if required, ok := schema["required"].([]interface{}); ok {
		for _, raw := range required {
			name, ok := raw.(string)
			if !ok {
				continue
			}
			if _, present := args[name]; !present {
				return fmt.Errorf("missing required argument %q", name)
			}
		}
	}

	if properties == nil {
		return nil
	}

	for name, value := range args {
		propRaw, known := properties[name]
		if !known {
			return fmt.Errorf("unknown argument %q", name)
		}
		prop, ok := propRaw.(map[string]interface{})
		if !ok {
			continue
		}
		declaredType, _ := prop["type"].(string)
		if declaredType == "" {
			continue
		}
		if err := checkType(name, declaredType, value); err != nil {
			return err
		}
	}

	return nil
}

// checkType verifies a decoded JSON value against a JSON-Schema type name.
// JSON numbers always decode to float64, so integers are accepted when the
// value has no fractional part.
func checkType(name, declaredType string, value interface{}) error {
	switch declaredType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("argument %q must be a string", name)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("argument %q must be a number", name)
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("argument %q must be an integer", name)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %q must be a boolean", name)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("argument %q must be an object", name)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("argument %q must be an array", name)
		}
	}
	return nil
}
