package lang

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store is a read-only phrase table keyed by language, then phrase key.
// It is loaded once at startup and never mutated afterwards.
type Store struct {
	phrases   map[string]map[string]string
	languages []string
}

const fallback = "en"

// Load reads a YAML phrase file of the form:
//
//	en:
//	  Welcome: "..."
//	ru:
//	  Welcome: "..."
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read locale file: %w", err)
	}

	var phrases map[string]map[string]string
	if err := yaml.Unmarshal(raw, &phrases); err != nil {
		return nil, fmt.Errorf("parse locale file: %w", err)
	}
	if _, ok := phrases[fallback]; !ok {
		return nil, fmt.Errorf("locale file %s has no %q section", path, fallback)
	}

	s := &Store{phrases: phrases}
	for code := range phrases {
		s.languages = append(s.languages, code)
	}
	return s, nil
}

// Translate returns the phrase for (lang, key), falling back to English and
// finally to the key itself so a missing phrase never blanks a message.
func (s *Store) Translate(lang, key string) string {
	if m, ok := s.phrases[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if v, ok := s.phrases[fallback][key]; ok {
		return v
	}
	return key
}

// Days splits the localized comma-delimited day-name string. The table must
// carry exactly 7 names, Monday first; anything else is broken locale data.
func (s *Store) Days(lang string) ([]string, error) {
	names := strings.Split(s.Translate(lang, "Days"), ",")
	if len(names) != 7 {
		return nil, fmt.Errorf("locale %q: Days must have 7 comma-separated names, got %d", lang, len(names))
	}
	return names, nil
}

// Supported reports whether code is a loaded language.
func (s *Store) Supported(code string) bool {
	_, ok := s.phrases[code]
	return ok
}

// Languages lists the loaded language codes.
func (s *Store) Languages() []string {
	return s.languages
}
