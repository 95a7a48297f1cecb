// Package describe loads module descriptions from YAML, TOML and JSON files
// and resolves them into stubgen modules.
//
// A description names Python symbols and gives their types as Go type
// expressions, resolved through a registry.Resolver:
//
//	module: geometry
//	classes:
//	  - name: Point
//	    fields:
//	      - {name: x, type: float64}
//	      - {name: y, type: float64}
//	    methods:
//	      - name: distance
//	        params: [{name: other, type: Point}]
//	        returns: float64
package describe

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/teranos/pystub/errors"
)

// File is one description file.
type File struct {
	// Module is the dotted Python module name
	Module string `yaml:"module" toml:"module" json:"module" validate:"required,pymodule"`

	// Doc is the module docstring
	Doc string `yaml:"doc,omitempty" toml:"doc" json:"doc,omitempty"`

	Variables []Variable `yaml:"variables,omitempty" toml:"variables" json:"variables,omitempty" validate:"dive"`
	Classes   []Class    `yaml:"classes,omitempty" toml:"classes" json:"classes,omitempty" validate:"dive"`
	Enums     []Enum     `yaml:"enums,omitempty" toml:"enums" json:"enums,omitempty" validate:"dive"`
	Functions []Function `yaml:"functions,omitempty" toml:"functions" json:"functions,omitempty" validate:"dive"`

	// path is the file the description was read from
	path string
}

// Path returns the file the description was loaded from.
func (f *File) Path() string {
	return f.path
}

// Class describes a class.
type Class struct {
	Name string `yaml:"name" toml:"name" json:"name" validate:"required,pyident"`
	Doc  string `yaml:"doc,omitempty" toml:"doc" json:"doc,omitempty"`

	// Bases are type expressions, usually other declared classes
	Bases []string `yaml:"bases,omitempty" toml:"bases" json:"bases,omitempty" validate:"dive,required"`

	Frozen  bool     `yaml:"frozen,omitempty" toml:"frozen" json:"frozen,omitempty"`
	Final   bool     `yaml:"final,omitempty" toml:"final" json:"final,omitempty"`
	Fields  []Field  `yaml:"fields,omitempty" toml:"fields" json:"fields,omitempty" validate:"dive"`
	Methods []Method `yaml:"methods,omitempty" toml:"methods" json:"methods,omitempty" validate:"dive"`
}

// Field describes a class attribute.
type Field struct {
	Name     string `yaml:"name" toml:"name" json:"name" validate:"required,pyident"`
	Doc      string `yaml:"doc,omitempty" toml:"doc" json:"doc,omitempty"`
	Type     string `yaml:"type" toml:"type" json:"type" validate:"required"`
	ReadOnly bool   `yaml:"readonly,omitempty" toml:"readonly" json:"readonly,omitempty"`
}

// Method describes a class method. Kind is one of instance (default),
// static, class or new.
type Method struct {
	Name    string  `yaml:"name" toml:"name" json:"name" validate:"omitempty,pyident"`
	Doc     string  `yaml:"doc,omitempty" toml:"doc" json:"doc,omitempty"`
	Kind    string  `yaml:"kind,omitempty" toml:"kind" json:"kind,omitempty" validate:"omitempty,oneof=instance static class new"`
	Params  []Param `yaml:"params,omitempty" toml:"params" json:"params,omitempty" validate:"dive"`
	Returns string  `yaml:"returns,omitempty" toml:"returns" json:"returns,omitempty"`
}

// Function describes a module-level function.
type Function struct {
	Name    string  `yaml:"name" toml:"name" json:"name" validate:"required,pyident"`
	Doc     string  `yaml:"doc,omitempty" toml:"doc" json:"doc,omitempty"`
	Params  []Param `yaml:"params,omitempty" toml:"params" json:"params,omitempty" validate:"dive"`
	Returns string  `yaml:"returns,omitempty" toml:"returns" json:"returns,omitempty"`
}

// Param describes a parameter. Default is a plain value rendered as a Python
// literal; DefaultExpr is written verbatim and wins over Default. An explicit
// null default (YAML and JSON; TOML has no null) renders as None.
type Param struct {
	Name        string `yaml:"name" toml:"name" json:"name" validate:"required,pyident"`
	Type        string `yaml:"type" toml:"type" json:"type" validate:"required"`
	Kind        string `yaml:"kind,omitempty" toml:"kind" json:"kind,omitempty" validate:"omitempty,oneof=positional positional_only keyword_only var_positional var_keyword"`
	Default     any    `yaml:"default,omitempty" toml:"default" json:"default,omitempty"`
	DefaultExpr string `yaml:"default_expr,omitempty" toml:"default_expr" json:"default_expr,omitempty"`

	// HasDefault records that the default key was present, even as null.
	HasDefault bool `yaml:"-" toml:"-" json:"-"`
}

type rawParam Param

var paramKeys = map[string]bool{"name": true, "type": true, "kind": true, "default": true, "default_expr": true}

// UnmarshalYAML decodes a parameter mapping, rejecting unknown keys.
func (p *Param) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Newf("line %d: parameter must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !paramKeys[key.Value] {
			return errors.Newf("line %d: field %s not found in type describe.Param", key.Line, key.Value)
		}
		if key.Value == "default" {
			p.HasDefault = true
		}
	}
	return node.Decode((*rawParam)(p))
}

// UnmarshalJSON decodes a parameter object, rejecting unknown keys and keeping
// numbers as json.Number.
func (p *Param) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode((*rawParam)(p)); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	_, p.HasDefault = keys["default"]
	return nil
}

// Enum describes an enum. Base is a qualified Python class such as
// enum.IntEnum; it defaults to enum.Enum.
type Enum struct {
	Name     string    `yaml:"name" toml:"name" json:"name" validate:"required,pyident"`
	Doc      string    `yaml:"doc,omitempty" toml:"doc" json:"doc,omitempty"`
	Base     string    `yaml:"base,omitempty" toml:"base" json:"base,omitempty" validate:"omitempty,pymodule"`
	Variants []Variant `yaml:"variants" toml:"variants" json:"variants" validate:"dive"`
}

// Variant is an enum member; Type optionally annotates its value.
type Variant struct {
	Name string `yaml:"name" toml:"name" json:"name" validate:"required,pyident"`
	Doc  string `yaml:"doc,omitempty" toml:"doc" json:"doc,omitempty"`
	Type string `yaml:"type,omitempty" toml:"type" json:"type,omitempty"`
}

// Variable describes a module-level constant.
type Variable struct {
	Name string `yaml:"name" toml:"name" json:"name" validate:"required,pyident"`
	Doc  string `yaml:"doc,omitempty" toml:"doc" json:"doc,omitempty"`
	Type string `yaml:"type" toml:"type" json:"type" validate:"required"`
}
