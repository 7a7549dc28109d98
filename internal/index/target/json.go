package target

import (
	"bytes"
	"encoding/json"
	"strings"
)

// parseJSON parses s as a single JSON value. ok is false when s is not
// well-formed JSON. Numbers are kept as json.Number.
func parseJSON(s string) (v interface{}, ok bool) {
	if !json.Valid([]byte(s)) {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// parseObject parses s and returns it only if it is a JSON object.
func parseObject(s string) (map[string]interface{}, bool) {
	v, ok := parseJSON(s)
	if !ok {
		return nil, false
	}
	obj, ok := v.(map[string]interface{})
	return obj, ok
}

// arrayField returns obj[key], defaulting to an empty array when absent.
// isArray is false when the field is present but not an array.
func arrayField(obj map[string]interface{}, key string) (arr []interface{}, isArray bool) {
	v, present := obj[key]
	if !present {
		return []interface{}{}, true
	}
	arr, isArray = v.([]interface{})
	return arr, isArray
}

// scalarString converts a JSON scalar to the column name it denotes.
// Arrays and objects have no string form.
func scalarString(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		if x {
			return "true", true
		}
		return "false", true
	case nil:
		return "", true
	}
	return "", false
}

// marshalCanonical renders v as compact JSON with sorted object keys and no
// HTML escaping.
func marshalCanonical(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
