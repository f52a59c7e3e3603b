// Package project loads SQL transformation projects from disk: node files
// with YAML frontmatter, declared external sources, and the project layout
// conventions (nodes/, seeds/, target/).
package project

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/modelflow/pkg/core"
)

// Frontmatter is the parsed YAML block at the top of a node file.
// Unknown fields cause parse errors (use meta for extensions).
type Frontmatter struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	Materialized string         `yaml:"materialized"` // table, view, incremental
	UniqueKey    string         `yaml:"unique_key"`
	Owner        string         `yaml:"owner"`
	Schema       string         `yaml:"schema"`
	Tags         []string       `yaml:"tags"`
	Meta         map[string]any `yaml:"meta"` // Extension point for custom fields
}

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Config  *Frontmatter
	SQL     string // SQL content after the frontmatter block
	HasYAML bool
}

// frontmatterPattern matches a leading /*--- ... ---*/ block.
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

// knownFrontmatterFields mirrors the yaml tags on Frontmatter.
var knownFrontmatterFields = map[string]bool{
	"name":         true,
	"description":  true,
	"materialized": true,
	"unique_key":   true,
	"owner":        true,
	"schema":       true,
	"tags":         true,
	"meta":         true,
}

// ExtractFrontmatter splits a node file into its YAML frontmatter and the
// SQL body. Files without a frontmatter block are returned unchanged with
// an empty config.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{
		Config: &Frontmatter{},
		SQL:    content,
	}

	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) < 2 {
		return result, nil
	}

	result.HasYAML = true
	result.SQL = strings.TrimSpace(frontmatterPattern.ReplaceAllString(content, ""))

	config, err := parseFrontmatterYAML(matches[1])
	if err != nil {
		return nil, err
	}
	result.Config = config
	return result, nil
}

// parseFrontmatterYAML decodes the YAML block with strict field validation.
func parseFrontmatterYAML(yamlContent string) (*Frontmatter, error) {
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &rawMap); err != nil {
		return nil, &FrontmatterError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	for field := range rawMap {
		if !knownFrontmatterFields[field] {
			return nil, &UnknownFieldError{Field: field}
		}
	}

	var config Frontmatter
	if err := yaml.Unmarshal([]byte(yamlContent), &config); err != nil {
		return nil, &FrontmatterError{Message: fmt.Sprintf("failed to parse frontmatter: %v", err)}
	}

	if config.Materialized != "" && !core.ValidMaterialization(config.Materialized) {
		return nil, &FrontmatterError{
			Message: fmt.Sprintf("invalid materialized value: %q, must be one of: table, view, incremental",
				config.Materialized),
		}
	}

	return &config, nil
}

// ApplyDefaults fills unset fields from file context: the name comes from
// the filename, the schema from the file's directory under the nodes root.
// A declared materialization wins over the project default, which wins over
// the hard default of view.
func (c *Frontmatter) ApplyDefaults(filename, dirPath, defaultMaterialized string) {
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(filename), ".sql")
	}
	if c.Materialized == "" {
		c.Materialized = defaultMaterialized
	}
	if c.Materialized == "" {
		c.Materialized = core.MaterializationView
	}
	if c.Schema == "" && dirPath != "" {
		c.Schema = dirPath
	}
}

// FrontmatterError reports a malformed frontmatter block.
type FrontmatterError struct {
	File    string
	Message string
}

func (e *FrontmatterError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError reports a frontmatter field outside the known set.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, use \"meta\" field for custom fields", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
