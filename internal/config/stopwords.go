package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// stopWordsFile is the on-disk format for stop word overrides.
type stopWordsFile struct {
	StopWords []string `yaml:"stop_words"`
}

// LoadStopWords reads a stop word list from a YAML file containing a
// top-level stop_words sequence. Words are lowercased and blank entries
// dropped. An empty path returns nil, meaning the embedder's built-in
// list applies.
func LoadStopWords(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stop words file: %w", err)
	}
	var f stopWordsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stop words file: %w", err)
	}
	words := make([]string, 0, len(f.StopWords))
	for _, w := range f.StopWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			words = append(words, w)
		}
	}
	return words, nil
}
