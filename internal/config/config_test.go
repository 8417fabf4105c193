package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearPackEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvPackPath, EnvRootDir, EnvPackDir, EnvPackName, EnvConfigPath, EnvEmbeddingProvider} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "packcheck.yaml")
	content := `
debug: true
pack:
  path: ./packs/docs.sqlite3
search:
  default_top: 10
  rrf_k: 30
embedding:
  provider: jina
  model: jina-embeddings-v3
server:
  port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, filepath.Join(dir, "packs", "docs.sqlite3"), cfg.Pack.Path)
	assert.Equal(t, 10, cfg.Search.DefaultTop)
	assert.Equal(t, 30.0, cfg.Search.RRFConstant)
	assert.Equal(t, DefaultOverfetch, cfg.Search.Overfetch)
	assert.Equal(t, DefaultSnippetLength, cfg.Search.SnippetLength)
	assert.Equal(t, "jina", cfg.Embedding.Provider)
	assert.Equal(t, "localhost:9000", cfg.Server.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [unclosed"), 0600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultTop, cfg.Search.DefaultTop)
	assert.Equal(t, 60.0, cfg.Search.RRFConstant)
	assert.Equal(t, 8, cfg.Search.Overfetch)
	assert.Equal(t, 200, cfg.Search.SnippetLength)
	assert.Equal(t, DefaultPackDir, cfg.Pack.Dir)
	assert.Equal(t, DefaultPackName, cfg.Pack.Name)
	assert.Empty(t, cfg.Embedding.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Search.RRFConstant = -1
	cfg.Search.Overfetch = -2
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rrf_k")
	assert.Contains(t, err.Error(), "overfetch")
}

func TestLoadOrDefault(t *testing.T) {
	clearPackEnv(t)

	t.Run("no file", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := LoadOrDefault("")
		require.NoError(t, err)
		assert.Equal(t, DefaultTop, cfg.Search.DefaultTop)
	})

	t.Run("env path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		require.NoError(t, os.WriteFile(path, []byte("search:\n  default_top: 3\n"), 0600))
		t.Setenv(EnvConfigPath, path)
		cfg, err := LoadOrDefault("")
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Search.DefaultTop)
	})

	t.Run("local file", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		require.NoError(t, os.WriteFile(LocalConfigFile, []byte("search:\n  overfetch: 4\n"), 0600))
		cfg, err := LoadOrDefault("")
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Search.Overfetch)
	})

	t.Run("provider env", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv(EnvEmbeddingProvider, "OpenAI")
		cfg, err := LoadOrDefault("")
		require.NoError(t, err)
		assert.Equal(t, "openai", cfg.Embedding.Provider)
	})
}

func TestResolvePackPath(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name     string
		env      map[string]string
		pack     PackConfig
		packFlag string
		rootFlag string
		want     string
	}{
		{
			name:     "flag wins",
			env:      map[string]string{EnvPackPath: "/env/pack.sqlite3"},
			pack:     PackConfig{Path: "/cfg/pack.sqlite3"},
			packFlag: "/flag/pack.sqlite3",
			want:     "/flag/pack.sqlite3",
		},
		{
			name: "env path over config",
			env:  map[string]string{EnvPackPath: "/env/pack.sqlite3"},
			pack: PackConfig{Path: "/cfg/pack.sqlite3"},
			want: "/env/pack.sqlite3",
		},
		{
			name: "config path",
			pack: PackConfig{Path: "/cfg/pack.sqlite3"},
			want: "/cfg/pack.sqlite3",
		},
		{
			name:     "defaults under root flag",
			rootFlag: root,
			want:     filepath.Join(root, "packs", "fluorite-pack.sqlite3"),
		},
		{
			name: "env root dir and name",
			env:  map[string]string{EnvRootDir: root, EnvPackDir: "out", EnvPackName: "docs"},
			want: filepath.Join(root, "out", "docs.sqlite3"),
		},
		{
			name:     "sqlite suffix kept",
			env:      map[string]string{EnvPackName: "docs.sqlite"},
			rootFlag: root,
			want:     filepath.Join(root, "packs", "docs.sqlite"),
		},
		{
			name:     "absolute dir",
			env:      map[string]string{EnvPackDir: "/abs/packs"},
			rootFlag: root,
			want:     "/abs/packs/fluorite-pack.sqlite3",
		},
		{
			name:     "absolute name",
			env:      map[string]string{EnvPackName: "/abs/name.sqlite3"},
			rootFlag: root,
			want:     "/abs/name.sqlite3",
		},
		{
			name: "config root dir name",
			pack: PackConfig{Root: root, Dir: "d", Name: "n.sqlite3"},
			want: filepath.Join(root, "d", "n.sqlite3"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearPackEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			got, err := ResolvePackPath(tt.pack, tt.packFlag, tt.rootFlag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePackPath_WorkingDirectory(t *testing.T) {
	clearPackEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	cwd, err := os.Getwd()
	require.NoError(t, err)

	got, err := ResolvePackPath(PackConfig{}, "", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "packs", "fluorite-pack.sqlite3"), got)
}
