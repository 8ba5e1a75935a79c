package doctpl

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalJSON decodes a JSON object of name -> Style, keeping key order.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("fields: expected an object, got %v", tok)
	}

	var out Fields
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name := tok.(string) // object keys are always strings

		var st Style
		if err := dec.Decode(&st); err != nil {
			return fmt.Errorf("fields: %s: %w", name, err)
		}
		if seen[name] {
			return fmt.Errorf("fields: duplicate field %q", name)
		}
		seen[name] = true
		out = append(out, Field{Name: name, Style: st.Resolve()})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*f = out
	return nil
}

// MarshalJSON encodes f as an object whose keys follow field order.
func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fld := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fld.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fld.Style)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a YAML mapping of name -> Style, keeping key order.
func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*f = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("fields: line %d: expected a mapping", node.Line)
	}

	out := make(Fields, 0, len(node.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		name := key.Value

		var st Style
		if val.Tag != "!!null" {
			if err := val.Decode(&st); err != nil {
				return fmt.Errorf("fields: %s: %w", name, err)
			}
		}
		if seen[name] {
			return fmt.Errorf("fields: line %d: duplicate field %q", key.Line, name)
		}
		seen[name] = true
		out = append(out, Field{Name: name, Style: st.Resolve()})
	}

	*f = out
	return nil
}
