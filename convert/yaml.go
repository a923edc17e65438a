// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package convert

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"

	"codeberg.org/tscat/tscat/catalog"
)

type yamlDocument struct {
	Language       string        `yaml:"language"`
	SourceLanguage string        `yaml:"sourceLanguage,omitempty"`
	Stats          catalog.Stats `yaml:"stats"`
	Contexts       []yamlContext `yaml:"contexts"`
	Issues         []yamlIssue   `yaml:"issues,omitempty"`
}

type yamlIssue struct {
	Kind           string `yaml:"kind"`
	Context        string `yaml:"context"`
	Source         string `yaml:"source"`
	Disambiguation string `yaml:"disambiguation,omitempty"`
	Detail         string `yaml:"detail,omitempty"`
}

type yamlContext struct {
	Name     string        `yaml:"name"`
	Messages []yamlMessage `yaml:"messages"`
}

type yamlMessage struct {
	ID             string   `yaml:"id,omitempty"`
	Source         string   `yaml:"source"`
	Disambiguation string   `yaml:"disambiguation,omitempty"`
	Status         string   `yaml:"status,omitempty"`
	Translation    string   `yaml:"translation,omitempty"`
	NumerusForms   []string `yaml:"numerusForms,omitempty"`
	Variants       []string `yaml:"variants,omitempty"`
	Note           string   `yaml:"note,omitempty"`
	Locations      []string `yaml:"locations,omitempty"`
}

// WriteYAML writes a flat YAML dump of c, meant for review tools and diffs.
func WriteYAML(w io.Writer, c *catalog.Catalog) error {
	doc := yamlDocument{
		Language:       c.Language,
		SourceLanguage: c.SourceLanguage,
		Stats:          c.Stats(),
	}

	for _, is := range c.Issues() {
		doc.Issues = append(doc.Issues, yamlIssue{
			Kind:           is.Kind.String(),
			Context:        is.Context,
			Source:         is.Source,
			Disambiguation: is.Disambiguation,
			Detail:         is.Detail,
		})
	}

	for _, ctx := range c.Contexts {
		yc := yamlContext{Name: ctx.Name}

		for _, m := range ctx.Messages {
			ym := yamlMessage{
				ID:             m.ID,
				Source:         m.Source,
				Disambiguation: m.Comment,
				Status:         m.Status.String(),
				Translation:    m.Translation,
				NumerusForms:   m.NumerusForms,
				Note:           m.ExtraComment,
			}

			if len(m.Variants) > 1 {
				ym.Variants = m.Variants
			}

			for _, loc := range m.Locations {
				ym.Locations = append(ym.Locations, fmt.Sprintf("%s:%d", loc.File, loc.Line))
			}

			yc.Messages = append(yc.Messages, ym)
		}

		doc.Contexts = append(doc.Contexts, yc)
	}

	if err := yaml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("convert: write yaml: %w", err)
	}

	return nil
}
