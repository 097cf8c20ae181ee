// Package prompts serves the reflection questions shown while filling
// in an assessment. A built-in set covers all areas; operators can
// override individual areas with YAML files.
package prompts

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/growth-tracker/internal/models"
)

// areaFile is the YAML shape of one override file.
type areaFile struct {
	Area      string   `yaml:"area"`
	Questions []string `yaml:"questions"`
}

// defaultQuestions ships with the binary; every area has an entry.
var defaultQuestions = map[models.Area][]string{
	models.AreaTech: {
		"How much have you learned about new technologies this week?",
		"Have you applied your technical knowledge to solve any problems?",
		"Have you shared your technical expertise with others?",
		"How confident do you feel with your current technical skills?",
	},
	models.AreaPersonal: {
		"How well have you maintained your physical health?",
		"Have you practiced mindfulness or self-reflection?",
		"Have you pursued any personal hobbies or interests?",
		"How would you rate your overall mental wellbeing?",
	},
	models.AreaBusiness: {
		"Have you made progress toward your professional goals?",
		"How effectively have you managed your finances?",
		"Have you identified new opportunities for growth?",
		"How satisfied are you with your work-life balance?",
	},
	models.AreaSocial: {
		"How much quality time have you spent with loved ones?",
		"Have you had meaningful conversations with friends or family?",
		"Have you expanded your social network?",
		"How supported do you feel by your social circle?",
	},
}

// Catalog resolves the question set per area.
type Catalog struct {
	mu        sync.RWMutex
	questions map[models.Area][]string
}

// NewCatalog creates a catalog with the built-in defaults.
func NewCatalog() *Catalog {
	q := make(map[models.Area][]string, len(defaultQuestions))
	for area, list := range defaultQuestions {
		q[area] = append([]string(nil), list...)
	}
	return &Catalog{questions: q}
}

// LoadFromDir replaces per-area question sets from .yaml/.yml files in
// dir. Areas without an override keep their defaults. A file naming an
// unknown area, or one with no questions, is an error.
func (c *Catalog) LoadFromDir(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read prompts directory: %w", err)
	}

	for _, f := range files {
		name := f.Name()
		if f.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read prompts file %s: %w", name, err)
		}

		var af areaFile
		if err := yaml.Unmarshal(content, &af); err != nil {
			return fmt.Errorf("failed to parse prompts file %s: %w", name, err)
		}

		area := models.Area(af.Area)
		if !area.Valid() {
			return fmt.Errorf("prompts file %s: unknown area %q", name, af.Area)
		}
		if len(af.Questions) == 0 {
			return fmt.Errorf("prompts file %s: no questions for area %q", name, af.Area)
		}

		c.mu.Lock()
		c.questions[area] = append([]string(nil), af.Questions...)
		c.mu.Unlock()

		slog.Info("loaded prompt overrides", "area", area, "questions", len(af.Questions), "file", name)
	}

	return nil
}

// Questions returns the question set for an area, in order. Invalid
// areas yield nil.
func (c *Catalog) Questions(area models.Area) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.questions[area]...)
}

// All returns every area's questions keyed by area id.
func (c *Catalog) All() map[models.Area][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[models.Area][]string, len(c.questions))
	for area, list := range c.questions {
		out[area] = append([]string(nil), list...)
	}
	return out
}
