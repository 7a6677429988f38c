// Package mapping models the column mapping file that drives a conversion and
// resolves it against the headers of a concrete export.
//
// A mapping file is an object keyed by logical column name. Each value says
// which export header feeds the column, which destination column receives
// it, an optional constant and an optional named transform:
//
//	{
//	  "startdate": {"input_header": "Start Date", "output_header": "startdate",
//	                "function": "convert_date_to_sql"},
//	  "status":    {"input_header": "Status", "output_header": "A2",
//	                "function": "override_status"},
//	  "language":  {"content": "en", "output_header": "startlanguage"},
//	  "concatenate_columns": [
//	    {"input_columns": ["city", "state", "zip"], "separator": ", ",
//	     "output_header": "address"}
//	  ]
//	}
//
// Key order is significant: it is the order columns are emitted in. JSON
// and YAML files are both accepted.
package mapping

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"tableconverter/internal/errors"
)

// ConcatKey is the reserved key holding concatenation rules.
const ConcatKey = "concatenate_columns"

// ColumnRule describes one logical column. Empty strings mean "not set".
type ColumnRule struct {
	// Name is the logical column name (the key in the mapping file).
	Name string `json:"-" yaml:"-"`

	InputHeader  string   `json:"input_header,omitempty" yaml:"input_header,omitempty"`
	OutputHeader string   `json:"output_header,omitempty" yaml:"output_header,omitempty"`
	Content      *Literal `json:"content,omitempty" yaml:"content,omitempty"`
	Function     string   `json:"function,omitempty" yaml:"function,omitempty"`
}

// Emitted reports whether the column produces an output value.
func (c ColumnRule) Emitted() bool { return c.OutputHeader != "" }

// ConcatRule joins several logical columns into one output column.
type ConcatRule struct {
	InputColumns []string `json:"input_columns" yaml:"input_columns"`
	Separator    string   `json:"separator" yaml:"separator"`
	OutputHeader string   `json:"output_header" yaml:"output_header"`
}

// Spec is a parsed mapping file with declaration order preserved.
type Spec struct {
	Columns []ColumnRule
	Concats []ConcatRule
}

// Column returns the rule for a logical column name.
func (s *Spec) Column(name string) (ColumnRule, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnRule{}, false
}

// Literal is a constant cell value. Mapping files may write it as a string,
// number or boolean; it is kept as text.
type Literal string

// String returns the literal text.
func (l Literal) String() string { return string(l) }

// UnmarshalJSON accepts any JSON scalar. Booleans become "1" and "".
func (l *Literal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = Literal(s)
		return nil
	}
	if len(data) == 0 || data[0] == '{' || data[0] == '[' {
		return errors.Newf("content must be a scalar, got %s", data)
	}
	switch string(data) {
	case "true", "false":
		*l = boolLiteral(string(data) == "true")
	default:
		*l = Literal(data)
	}
	return nil
}

// UnmarshalYAML accepts any YAML scalar. Booleans become "1" and "".
func (l *Literal) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.Newf("line %d: content must be a scalar", n.Line)
	}
	if n.ShortTag() == "!!bool" {
		*l = boolLiteral(strings.EqualFold(n.Value, "true"))
		return nil
	}
	*l = Literal(n.Value)
	return nil
}

// boolLiteral renders a boolean the way the output table stores it: "1" or
// empty.
func boolLiteral(b bool) Literal {
	if b {
		return "1"
	}
	return ""
}

// Load reads a mapping file. The format follows the extension: .yaml and
// .yml are YAML, anything else is JSON. Every failure is a configuration
// error.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfiguration(err, "read mapping file")
	}

	var spec *Spec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		spec, err = ParseYAML(data)
	default:
		spec, err = ParseJSON(data)
	}
	if err != nil {
		return nil, errors.WrapConfiguration(err, "mapping file %s", path)
	}
	return spec, nil
}

// ParseJSON decodes a JSON mapping document.
func ParseJSON(data []byte) (*Spec, error) {
	om := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, om); err != nil {
		return nil, errors.WrapConfiguration(err, "decode json")
	}

	spec := &Spec{}
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == ConcatKey {
			if err := json.Unmarshal(pair.Value, &spec.Concats); err != nil {
				return nil, errors.WrapConfiguration(err, "decode %s", ConcatKey)
			}
			continue
		}
		var rule ColumnRule
		if err := json.Unmarshal(pair.Value, &rule); err != nil {
			return nil, errors.WrapConfiguration(err, "decode column %q", pair.Key)
		}
		rule.Name = pair.Key
		spec.Columns = append(spec.Columns, rule)
	}
	return checkNotEmpty(spec)
}

// ParseYAML decodes a YAML mapping document.
func ParseYAML(data []byte) (*Spec, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapConfiguration(err, "decode yaml")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.Configurationf("mapping file is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Configurationf("line %d: mapping file must be a mapping of column names", root.Line)
	}

	spec := &Spec{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if key == ConcatKey {
			if err := val.Decode(&spec.Concats); err != nil {
				return nil, errors.WrapConfiguration(err, "decode %s", ConcatKey)
			}
			continue
		}
		var rule ColumnRule
		if err := val.Decode(&rule); err != nil {
			return nil, errors.WrapConfiguration(err, "decode column %q", key)
		}
		rule.Name = key
		spec.Columns = append(spec.Columns, rule)
	}
	return checkNotEmpty(spec)
}

func checkNotEmpty(spec *Spec) (*Spec, error) {
	if len(spec.Columns) == 0 && len(spec.Concats) == 0 {
		return nil, errors.Configurationf("mapping file defines no columns")
	}
	return spec, nil
}
