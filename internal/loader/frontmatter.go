// Package loader discovers proof source files, parses their YAML
// frontmatter, and flattens them into one import-ordered command stream.
package loader

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontmatterConfig represents parsed YAML frontmatter.
// Unknown fields cause parse errors (use Meta for extensions).
type FrontmatterConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Imports     []string       `yaml:"imports"`
	Owner       string         `yaml:"owner"`
	Tags        []string       `yaml:"tags"`
	Meta        map[string]any `yaml:"meta"` // Extension point for custom fields
}

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Config  *FrontmatterConfig
	Source  string // proof source after frontmatter
	HasYAML bool   // Whether frontmatter was found
}

// frontmatterPattern matches a leading --- ... --- block
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*---\s*\n(.*?)\n---\s*(\n|$)`)

// ExtractFrontmatter extracts YAML frontmatter from proof source.
// The block is replaced by blank lines rather than removed, so token
// positions in the remaining source still match the file on disk.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{
		Config:  &FrontmatterConfig{},
		Source:  content,
		HasYAML: false,
	}

	loc := frontmatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return result, nil
	}

	result.HasYAML = true
	yamlContent := content[loc[2]:loc[3]]
	blanked := strings.Repeat("\n", strings.Count(content[loc[0]:loc[1]], "\n"))
	result.Source = blanked + content[loc[1]:]

	config, err := parseFrontmatterYAML(yamlContent)
	if err != nil {
		return nil, err
	}

	result.Config = config
	return result, nil
}

// parseFrontmatterYAML parses YAML content with strict field validation.
func parseFrontmatterYAML(yamlContent string) (*FrontmatterConfig, error) {
	// First, decode into a map to check for unknown fields
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &rawMap); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	knownFields := map[string]bool{
		"name":        true,
		"description": true,
		"imports":     true,
		"owner":       true,
		"tags":        true,
		"meta":        true,
	}

	for field := range rawMap {
		if !knownFields[field] {
			return nil, &UnknownFieldError{
				Field: field,
			}
		}
	}

	var config FrontmatterConfig
	if err := yaml.Unmarshal([]byte(yamlContent), &config); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("failed to parse frontmatter: %v", err),
		}
	}

	return &config, nil
}

// ApplyDefaults applies default values based on file context.
func (c *FrontmatterConfig) ApplyDefaults(filename string) {
	// Default name from filename (without .sq extension)
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filename, ".sq")
	}
}

// FrontmatterParseError represents a frontmatter parsing error.
type FrontmatterParseError struct {
	File    string
	Line    int
	Message string
}

func (e *FrontmatterParseError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
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
