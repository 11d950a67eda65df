package vocab

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleKeywords(t *testing.T) {
	tables := Default()

	tests := []struct {
		name       string
		role       string
		wantFamily string
		wantFirst  string
		wantLen    int
	}{
		{"frontend", "Frontend Developer", "frontend", "JavaScript", 12 + 6},
		{"case insensitive", "SENIOR BACKEND ENGINEER", "backend", "Node.js", 12 + 6},
		{"data", "Data Analyst", "data", "Python", 10 + 6},
		{"no family", "Product Manager", DefaultFamily, "communication", 6},
		{"empty role", "", DefaultFamily, "communication", 6},
		{"first family wins", "frontend and backend", "frontend", "JavaScript", 12 + 6},
		{"backend listed before data", "Backend Data Engineer", "backend", "Node.js", 12 + 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			family, keywords := tables.RoleKeywords(tt.role)
			assert.Equal(t, tt.wantFamily, family)
			require.Len(t, keywords, tt.wantLen)
			assert.Equal(t, tt.wantFirst, keywords[0])
		})
	}
}

func TestRoleKeywordsReturnsCopy(t *testing.T) {
	tables := Default()
	_, keywords := tables.RoleKeywords("nothing")
	keywords[0] = "mutated"
	assert.Equal(t, "communication", tables.DefaultKeywords[0])
}

func TestDefaultTablesShape(t *testing.T) {
	tables := Default()
	assert.Len(t, tables.ActionVerbs, 23)
	assert.GreaterOrEqual(t, len(tables.TechSkills), 60)
	assert.Equal(t, []string{"frontend", "backend", "fullstack", "data", "devops", "mobile"}, tables.FamilyNames())
	require.Len(t, tables.Sections(), 5)
	assert.Equal(t, "summary", tables.Sections()[0].Name)
	assert.True(t, tables.Sections()[0].Re.MatchString("PROFILE"))
}

func TestLoadMergesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	content := `version: custom-2
role_families:
  - name: golang
    keywords: [Go, gRPC, Kubernetes]
action_verbs: [shipped]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tables, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "custom-2", tables.Version)
	family, keywords := tables.RoleKeywords("Senior Golang Engineer")
	assert.Equal(t, "golang", family)
	assert.Equal(t, []string{"Go", "gRPC", "Kubernetes"}, keywords[:3])
	assert.Equal(t, []string{"shipped"}, tables.ActionVerbs)
	assert.Equal(t, Default().TechSkills, tables.TechSkills)
	assert.Len(t, tables.Sections(), 5)
}

func TestLoadRejectsBadPattern(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	content := `section_patterns:
  - name: broken
    pattern: "summary("
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestHolderConcurrentAccess(t *testing.T) {
	holder := NewHolder(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = holder.Get().RoleKeywords("frontend")
		}()
		go func() {
			defer wg.Done()
			holder.Set(Default())
		}()
	}
	wg.Wait()
	assert.Equal(t, DefaultVersion, holder.Get().Version)
}

func TestHolderReloadKeepsSnapshotOnError(t *testing.T) {
	holder := NewHolder(nil)
	before := holder.Get()
	err := holder.Reload(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
	assert.Same(t, before, holder.Get())
}
