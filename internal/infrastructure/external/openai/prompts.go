package openai

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// ChatPrompt configures one chat completion operation
type ChatPrompt struct {
	Model        string        `yaml:"model"`
	Temperature  float32       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	System       string        `yaml:"system"`
	UserTemplate string        `yaml:"user_template"`
}

// ImagePrompt configures image generation
type ImagePrompt struct {
	Model        string        `yaml:"model"`
	Size         string        `yaml:"size"`
	Quality      string        `yaml:"quality"`
	OutputFormat string        `yaml:"output_format"`
	Timeout      time.Duration `yaml:"timeout"`
	UserTemplate string        `yaml:"user_template"`
}

// PromptConfig holds all AI prompts and model parameters used by the product generator
type PromptConfig struct {
	ProductDetails   ChatPrompt  `yaml:"product_details"`
	RichContentPages ChatPrompt  `yaml:"rich_content_pages"`
	CoverImage       ImagePrompt `yaml:"cover_image"`
}

// DefaultPrompts returns the built-in prompt configuration
func DefaultPrompts() (*PromptConfig, error) {
	return parsePrompts(defaultPrompts)
}

// LoadPrompts loads prompt configuration from YAML file. Sections missing
// from the file keep their built-in values.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	prompts, err := DefaultPrompts()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	return prompts, nil
}

func parsePrompts(data []byte) (*PromptConfig, error) {
	var prompts PromptConfig
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	return &prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
