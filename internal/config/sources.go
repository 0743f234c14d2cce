package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source describes one configured feed. Name is the human-readable
// label attached to every article; it never comes from the feed itself.
type Source struct {
	Name            string `yaml:"name"`
	FeedURL         string `yaml:"feed_url"`
	DefaultCategory string `yaml:"default_category"`
	OgImageFallback bool   `yaml:"og_image_fallback"`
}

// SourcesConfig is the YAML source list structure:
//
// sources:
//   - name: TechCrunch
//     feed_url: https://techcrunch.com/feed/
//     default_category: Technology
//     og_image_fallback: true
type SourcesConfig struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the feed source list from a YAML file.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding sources config %s: %w", path, err)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("no sources defined in %s", path)
	}
	return cfg.Sources, nil
}
