// Package output renders extraction results for the command line.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.yaml.in/yaml/v3"
)

// Format selects the rendering.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid format: %s (must be json or yaml)", s)
}

// ToJSON serializes v as JSON, indented when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// ToYAML serializes v as YAML with two-space indentation.
func ToYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render serializes v in the requested format.
func Render(v any, format Format, pretty bool) ([]byte, error) {
	switch format {
	case FormatYAML:
		return ToYAML(v)
	case FormatJSON, "":
		return ToJSON(v, pretty)
	}
	return nil, fmt.Errorf("invalid format: %s", format)
}
