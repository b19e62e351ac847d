// Package policy loads named validation rule sets from YAML and keeps them
// current while the file changes.
//
// A policy file maps names to rules:
//
//	policies:
//	  avatars:
//	    preset: images
//	    maxFileSize: 2 MiB
//	    dimensions:
//	      maxWidth: 1024
//	      maxHeight: 1024
//	  scans:
//	    maxFileSize: 20971520
//	    fileType: application/pdf
//	    enforceSignature: true
//	    allowedSignature: application/pdf
//
// Patterns follow filevalidator.ParsePattern, so "image/*", "document/*"
// and "/^image\/(png|jpeg)$/" are all accepted.
package policy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/gobeaver/uploadkit/filevalidator"
)

// Source resolves a policy name to a validator. Both *Catalog and *Watcher
// implement it.
type Source interface {
	Lookup(name string) (filevalidator.Validator, bool)
}

// Size is a byte count written either as an integer or as a humanized
// string such as "10 MiB".
type Size int64

// UnmarshalYAML implements yaml.Unmarshaler
func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	var n int64
	if err := node.Decode(&n); err == nil {
		*s = Size(n)
		return nil
	}
	var str string
	if err := node.Decode(&str); err != nil {
		return fmt.Errorf("line %d: size must be a number or a string", node.Line)
	}
	v, err := humanize.ParseBytes(str)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = Size(v)
	return nil
}

// Dimensions mirrors filevalidator.DimensionRule.
type Dimensions struct {
	MinWidth  int `yaml:"minWidth"`
	MinHeight int `yaml:"minHeight"`
	MaxWidth  int `yaml:"maxWidth"`
	MaxHeight int `yaml:"maxHeight"`
	MaxPixels int `yaml:"maxPixels"`
}

// Rule is the YAML form of one rule set. Fields left empty inherit from
// Preset, if any.
type Rule struct {
	Preset           string      `yaml:"preset"`
	MaxFileSize      Size        `yaml:"maxFileSize"`
	FileType         string      `yaml:"fileType"`
	EnforceSignature *bool       `yaml:"enforceSignature"`
	AllowedSignature string      `yaml:"allowedSignature"`
	Dimensions       *Dimensions `yaml:"dimensions"`
}

// Document is the top level of a policy file.
type Document struct {
	Policies map[string]Rule `yaml:"policies"`
}

var presets = map[string]func() *filevalidator.Builder{
	"images":    filevalidator.ForImages,
	"documents": filevalidator.ForDocuments,
	"any":       filevalidator.Empty,
}

// RuleSet converts r, applying its preset first.
func (r Rule) RuleSet() (filevalidator.RuleSet, error) {
	var rs filevalidator.RuleSet
	if r.Preset != "" {
		preset, ok := presets[strings.ToLower(r.Preset)]
		if !ok {
			return rs, fmt.Errorf("unknown preset %q", r.Preset)
		}
		rs = preset().RuleSet()
	}

	if r.MaxFileSize > 0 {
		rs.MaxFileSize = int64(r.MaxFileSize)
	}
	if r.FileType != "" {
		p, err := filevalidator.ParsePattern(r.FileType)
		if err != nil {
			return rs, fmt.Errorf("fileType: %w", err)
		}
		rs.FileType = p
	}
	if r.AllowedSignature != "" {
		p, err := filevalidator.ParsePattern(r.AllowedSignature)
		if err != nil {
			return rs, fmt.Errorf("allowedSignature: %w", err)
		}
		rs.AllowedSignature = p
		rs.EnforceSignature = true
	}
	if r.EnforceSignature != nil {
		rs.EnforceSignature = *r.EnforceSignature
	}
	if d := r.Dimensions; d != nil {
		rs.Dimensions = filevalidator.DimensionRule{
			MinWidth:  d.MinWidth,
			MinHeight: d.MinHeight,
			MaxWidth:  d.MaxWidth,
			MaxHeight: d.MaxHeight,
			MaxPixels: d.MaxPixels,
		}
	}
	return rs, nil
}

// Catalog is an immutable set of named validators.
type Catalog struct {
	validators map[string]*filevalidator.FileValidator
}

// Lookup implements Source
func (c *Catalog) Lookup(name string) (filevalidator.Validator, bool) {
	v, ok := c.validators[name]
	if !ok {
		return nil, false
	}
	return v, true
}

// Names returns the policy names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.validators))
	for n := range c.validators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of policies.
func (c *Catalog) Len() int {
	return len(c.validators)
}

// Builtin returns the preset policies "images", "documents" and "any".
func Builtin() *Catalog {
	c := &Catalog{validators: make(map[string]*filevalidator.FileValidator, len(presets))}
	for name, preset := range presets {
		c.validators[name] = preset().MustBuild()
	}
	return c
}

// Parse builds a catalog from YAML. Every policy must be valid; the errors
// of all invalid ones are reported together.
func Parse(data []byte) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse policies: %w", err)
	}
	if len(doc.Policies) == 0 {
		return nil, errors.New("parse policies: no policies defined")
	}

	c := &Catalog{validators: make(map[string]*filevalidator.FileValidator, len(doc.Policies))}
	var errs []error
	for name, rule := range doc.Policies {
		rs, err := rule.RuleSet()
		if err == nil {
			c.validators[name], err = filevalidator.New(rs)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("policy %q: %w", name, err))
		}
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// ParseReader is Parse over a reader.
func ParseReader(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadFile parses the policy file at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseReader(f)
}
