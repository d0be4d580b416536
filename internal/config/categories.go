package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ActivityCategory is one producer activity kind shown in filters.
type ActivityCategory struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Icon        string `yaml:"icon"`
}

// ProductCategoryConfig is one product grouping seeded into the database.
type ProductCategoryConfig struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Icon        string `yaml:"icon"`
	Order       int    `yaml:"order"`
}

// CategoriesConfig is the root of categories.yaml.
type CategoriesConfig struct {
	Activities []ActivityCategory      `yaml:"activities"`
	Products   []ProductCategoryConfig `yaml:"products"`
}

// LoadCategoriesConfig loads and validates the categories file.
func LoadCategoriesConfig(path string) (*CategoriesConfig, error) {
	if path == "" {
		path = "configs/categories.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories config: %w", err)
	}

	var cfg CategoriesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse categories config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate categories config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for empty and duplicate category names.
func (c *CategoriesConfig) Validate() error {
	if len(c.Activities) == 0 {
		return fmt.Errorf("no activity categories defined")
	}

	seen := make(map[string]bool)
	for i, a := range c.Activities {
		if a.Name == "" {
			return fmt.Errorf("activities[%d]: name is required", i)
		}
		if seen[a.Name] {
			return fmt.Errorf("activities[%d]: duplicate name %q", i, a.Name)
		}
		seen[a.Name] = true
	}

	seen = make(map[string]bool)
	for i, p := range c.Products {
		if p.Name == "" {
			return fmt.Errorf("products[%d]: name is required", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("products[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}

// HasActivity reports whether the name is a configured activity category.
func (c *CategoriesConfig) HasActivity(name string) bool {
	for _, a := range c.Activities {
		if a.Name == name {
			return true
		}
	}
	return false
}
