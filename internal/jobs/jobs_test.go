package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumescore/internal/errors"
	"resumescore/internal/types"
)

func TestBuiltin(t *testing.T) {
	postings := Builtin()
	require.Len(t, postings, 12)
	assert.Equal(t, "Frontend Developer", postings[0].Title)
	assert.Equal(t, "Node.js Developer", postings[11].Title)

	seen := map[string]bool{}
	for _, p := range postings {
		assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
		assert.NotEmpty(t, p.RequiredSkills)
		assert.Equal(t, "Full-time", p.Type)
	}

	postings[0].RequiredSkills[0] = "changed"
	assert.Equal(t, "React", Builtin()[0].RequiredSkills[0])
}

func TestFind(t *testing.T) {
	job, ok := Find(Builtin(), "7")
	require.True(t, ok)
	assert.Equal(t, "AnalyticsPro", job.Company)

	_, ok = Find(Builtin(), "99")
	assert.False(t, ok)
}

func TestTemplates(t *testing.T) {
	assert.Len(t, Templates(), 8)
	assert.Equal(t, "Frontend Developer", Roles()[0])

	tmpl, ok := Template("  devops engineer ")
	require.True(t, ok)
	assert.Contains(t, tmpl.Skills, "Kubernetes")
	assert.Contains(t, tmpl.Tools, "Grafana")

	_, ok = Template("Chef")
	assert.False(t, ok)
}

func TestRecommendWithTemplate(t *testing.T) {
	got := Recommend(Builtin(), "Frontend Developer", []string{"GraphQL"})
	require.Len(t, got, 8)
	// React Developer and Senior Frontend Engineer match every skill;
	// CSS and HTML do not equal the template's CSS3 and HTML5.
	assert.Equal(t, []string{"2", "4", "1", "11", "3"}, []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID, got[4].ID})
	assert.Equal(t, 100, got[0].MatchScore)
	assert.Equal(t, 67, got[2].MatchScore)
	assert.Equal(t, 0, got[7].MatchScore)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].MatchScore, got[i].MatchScore)
	}
}

func TestRecommendWithoutTemplate(t *testing.T) {
	got := Recommend(Builtin(), "Astronaut", []string{"React"})
	require.Len(t, got, 6)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, 0, got[0].MatchScore)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `[{"id":"a","title":"Go Developer","company":"Gopher Inc","requiredSkills":["Go","SQL"]}]`)
	postings, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, postings, 1)
	assert.Equal(t, []string{"Go", "SQL"}, postings[0].RequiredSkills)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    string
	}{
		{"missing required field", `[{"id":"a","title":"T","requiredSkills":[]}]`, errors.ErrCodeInvalidJobs},
		{"wrong skill type", `[{"id":"a","title":"T","company":"C","requiredSkills":[1]}]`, errors.ErrCodeInvalidJobs},
		{"not an array", `{"id":"a"}`, errors.ErrCodeInvalidJobs},
		{"malformed json", `[{`, errors.ErrCodeInvalidJobs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))
}

func TestHolder(t *testing.T) {
	h := NewHolder(nil)
	assert.Equal(t, 12, h.Len())

	h.Set([]types.JobPosting{{ID: "x", RequiredSkills: []string{"Go"}}})
	got, err := h.Jobs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", got[0].ID)

	require.Error(t, h.Reload(writeFile(t, `not json`)))
	assert.Equal(t, 1, h.Len())

	require.NoError(t, h.Reload(writeFile(t, `[]`)))
	assert.Equal(t, 0, h.Len())
}
