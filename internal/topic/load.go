package topic

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a topic from a YAML file.
func Load(path string) (*Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic: %w", err)
	}
	return Parse(data)
}

// Parse decodes a topic and numbers and orders its posts.
func Parse(data []byte) (*Topic, error) {
	var t Topic
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse topic: %w", err)
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	return &t, nil
}
