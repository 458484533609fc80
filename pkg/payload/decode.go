package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/ifcwatch/pkg/errors"
)

// Format identifies the encoding of a payload document.
type Format string

// Supported payload document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension.
// Anything other than .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and parses a payload file.
func Load(path string) (Input, error) {
	if err := errors.ValidatePath(path); err != nil {
		return Input{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Input{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "payload file %s", path)
	}
	if err != nil {
		return Input{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return Parse(data, FormatFromPath(path))
}

// Parse decodes a payload document. An envelope ({"type", "value", "count"})
// is used as-is; any other document becomes the value of an input whose
// kind is inferred. Blank documents produce an absent input.
func Parse(data []byte, format Format) (Input, error) {
	var (
		v   any
		err error
	)
	switch format {
	case FormatYAML:
		v, err = DecodeYAML(data)
	default:
		v, err = DecodeJSON(data)
	}
	if err != nil {
		return Input{}, err
	}
	if obj, ok := v.(*Object); ok && isEnvelope(obj) {
		return fromEnvelope(obj)
	}
	return NewInput("", v), nil
}

// DecodeJSON decodes a JSON document into a value tree, keeping object keys
// in document order. Blank input decodes to nil.
func DecodeJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode JSON")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrCodeInvalidPayload, "decode JSON: unexpected data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := &Object{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key must be a string, got %v", kt)
				}
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			list := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %v", t)
	case json.Number:
		return numberValue(t), nil
	default:
		return t, nil
	}
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	f, _ := n.Float64()
	return f
}

// DecodeYAML decodes a YAML document into a value tree, keeping mapping keys
// in document order. Blank input decodes to nil.
func DecodeYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode YAML")
	}
	if doc.Kind == 0 {
		return nil, nil
	}
	v, err := fromYAML(&doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPayload, err, "decode YAML")
	}
	return v, nil
}

func fromYAML(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.MappingNode:
		obj := &Object{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key must be a scalar", k.Line)
			}
			v, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Set(k.Value, v)
		}
		return obj, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!str", "!!timestamp", "!!binary":
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Normalize(v), nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}
