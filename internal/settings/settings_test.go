// ABOUTME: Tests for settings defaults, environment overrides, config files and database paths.

package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	s, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "9000", s.Port)
	assert.Equal(t, "January 2, 2006", s.DateFormat)
	assert.Equal(t, 20, s.PerPage)
	assert.Equal(t, 5*time.Minute, s.FilterCacheTTL)
	assert.Equal(t, "administrator", s.DefaultRole)
	assert.Equal(t, filepath.Join(os.Getenv("XDG_DATA_HOME"), "cpt", "cpt.db"), s.DB)
}

func TestLoad_EnvAndFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpt.yaml"), []byte(
		"port: \"8080\"\nbase_url: https://cms.example.com/\nper_page: 0\nfilter_cache_ttl: 30s\ndb: ./site.db\n"), 0644))
	t.Setenv("CPT_PORT", "7000")
	t.Setenv("CPT_DATE_FORMAT", "2006-01-02")

	s, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "7000", s.Port, "env beats file")
	assert.Equal(t, "2006-01-02", s.DateFormat)
	assert.Equal(t, "https://cms.example.com", s.BaseURL)
	assert.Equal(t, 20, s.PerPage)
	assert.Equal(t, 30*time.Second, s.FilterCacheTTL)
	assert.Equal(t, "./site.db", s.DB)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestCleanDBPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"  ./data/cpt.db ", "data/cpt.db", false},
		{"/tmp/cpt.db", "/tmp/cpt.db", false},
		{"", "", true},
		{"/", "", true},
		{"../cpt.db", "", true},
		{"/repo/.git/cpt.db", "", true},
		{"/home/me/secrets/cpt.db", "", true},
	}
	for _, tt := range tests {
		got, err := CleanDBPath(tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got)
	}
}

func TestDefaultDBPath_PrefersWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cpt.db"), nil, 0644))
	assert.Equal(t, "./cpt.db", DefaultDBPath())
}
