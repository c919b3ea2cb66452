package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the blog list file
type Loader struct {
	path string
}

// NewLoader creates a new blog list loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and validates the YAML blog list
func (l *Loader) Load() (*BlogList, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blog list: %w", err)
	}

	var list BlogList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := l.validate(&list); err != nil {
		return nil, fmt.Errorf("invalid blog list %s: %w", l.path, err)
	}

	return &list, nil
}

// validate checks the blog list for obvious mistakes
func (l *Loader) validate(list *BlogList) error {
	if len(list.Blogs) == 0 {
		return fmt.Errorf("no blogs configured")
	}

	seen := make(map[string]bool, len(list.Blogs))
	for i, blog := range list.Blogs {
		if blog.URL == "" {
			return fmt.Errorf("blog at index %d has no URL", i)
		}
		if seen[blog.URL] {
			return fmt.Errorf("duplicate blog URL: %s", blog.URL)
		}
		seen[blog.URL] = true
	}

	return nil
}
