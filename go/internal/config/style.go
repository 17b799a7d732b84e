package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/mailagent/go/internal/models"
)

// StyleCatalog lists the style choices offered to users plus optional per-tone prompt guidance.
type StyleCatalog struct {
	Languages       []string               `yaml:"languages" json:"languages"`
	DefaultLanguage string                 `yaml:"default_language" json:"default_language"`
	DefaultTone     models.Tone            `yaml:"default_tone" json:"default_tone"`
	ToneGuidance    map[models.Tone]string `yaml:"tone_guidance" json:"-"`
}

// DefaultStyleCatalog returns the built-in language list and default style.
func DefaultStyleCatalog() *StyleCatalog {
	return &StyleCatalog{
		Languages:       []string{"English", "Spanish", "French", "German", "Hindi", "Tamil"},
		DefaultLanguage: "English",
		DefaultTone:     models.DefaultTone,
		ToneGuidance:    map[models.Tone]string{},
	}
}

// LoadStyleCatalog reads a YAML catalogue. Unset fields keep their defaults.
func LoadStyleCatalog(path string) (*StyleCatalog, error) {
	catalog := DefaultStyleCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style config: %w", err)
	}
	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("failed to parse style config: %w", err)
	}

	if len(catalog.Languages) == 0 {
		catalog.Languages = DefaultStyleCatalog().Languages
	}
	if !slices.Contains(catalog.Languages, catalog.DefaultLanguage) {
		catalog.DefaultLanguage = catalog.Languages[0]
	}
	if catalog.DefaultTone == "" {
		catalog.DefaultTone = models.DefaultTone
	}
	if !catalog.DefaultTone.Valid() {
		return nil, fmt.Errorf("invalid default_tone %q", catalog.DefaultTone)
	}
	for tone := range catalog.ToneGuidance {
		if !tone.Valid() {
			return nil, fmt.Errorf("tone_guidance: unknown tone %q", tone)
		}
	}
	if catalog.ToneGuidance == nil {
		catalog.ToneGuidance = map[models.Tone]string{}
	}

	return catalog, nil
}
