package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_seed.yaml
var defaultSeed []byte

// Data is a parsed seed file.
type Data struct {
	Categories []Category `yaml:"categories"`
	States     []State    `yaml:"states"`
}

// Category describes one therapy category.
type Category struct {
	Name     string   `yaml:"name"`
	Slug     string   `yaml:"slug"`
	Synonyms []string `yaml:"synonyms"`
	Keywords []string `yaml:"keywords"`
}

// State groups the seeded cities of one state.
type State struct {
	Code   string `yaml:"code"`
	Name   string `yaml:"name"`
	Cities []City `yaml:"cities"`
}

// City is a seeded city. In YAML it is either a bare name or a mapping with
// neighborhoods.
type City struct {
	Name          string   `yaml:"name"`
	Slug          string   `yaml:"slug"`
	Neighborhoods []string `yaml:"neighborhoods"`
}

// UnmarshalYAML accepts the scalar shorthand for cities without neighborhoods.
func (c *City) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Name = node.Value
		return nil
	}
	type plain City
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*c = City(p)
	return nil
}

// Default returns the embedded data set.
func Default() (*Data, error) {
	return Parse(defaultSeed)
}

// Load reads a seed file, or the embedded default when path is empty.
func Load(path string) (*Data, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	data, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// Parse decodes and validates seed YAML. Unknown keys are rejected.
func Parse(raw []byte) (*Data, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var data Data
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// Validate checks required fields.
func (d *Data) Validate() error {
	var errs []error
	for i, c := range d.Categories {
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Errorf("categories[%d].name is required", i))
		}
	}
	for i, s := range d.States {
		if len(strings.TrimSpace(s.Code)) != 2 {
			errs = append(errs, fmt.Errorf("states[%d].code must be a two-letter state code", i))
		}
		for j, c := range s.Cities {
			if strings.TrimSpace(c.Name) == "" {
				errs = append(errs, fmt.Errorf("states[%d].cities[%d].name is required", i, j))
			}
		}
	}
	return errors.Join(errs...)
}
