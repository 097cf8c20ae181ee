package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/growth-tracker/internal/models"
)

func TestDefaultsCoverAllAreas(t *testing.T) {
	c := NewCatalog()

	for _, area := range models.Areas() {
		questions := c.Questions(area)
		assert.NotEmpty(t, questions, "area %s has no default questions", area)
	}

	assert.Len(t, c.All(), 4)
}

func TestLoadFromDirOverridesArea(t *testing.T) {
	dir := t.TempDir()
	content := "area: tech\nquestions:\n  - Did you read any papers this week?\n  - Did you build something new?\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tech.yaml"), []byte(content), 0o644))

	c := NewCatalog()
	require.NoError(t, c.LoadFromDir(dir))

	got := c.Questions(models.AreaTech)
	require.Len(t, got, 2)
	assert.Equal(t, "Did you read any papers this week?", got[0])

	// Other areas keep their defaults.
	assert.Len(t, c.Questions(models.AreaPersonal), 4)
}

func TestLoadFromDirRejectsUnknownArea(t *testing.T) {
	dir := t.TempDir()
	content := "area: finance\nquestions:\n  - Not a real area\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "finance.yaml"), []byte(content), 0o644))

	c := NewCatalog()
	err := c.LoadFromDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown area")
}

func TestLoadFromDirRejectsEmptyQuestions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tech.yml"), []byte("area: tech\nquestions: []\n"), 0o644))

	c := NewCatalog()
	assert.Error(t, c.LoadFromDir(dir))
}

func TestLoadFromDirIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not yaml"), 0o644))

	c := NewCatalog()
	require.NoError(t, c.LoadFromDir(dir))
	assert.Len(t, c.Questions(models.AreaTech), 4)
}
