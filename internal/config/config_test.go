package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/agriadvisor/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AGRI_CONFIG", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("AGRI_LLM_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, cfg.LLM.Provider)
	assert.False(t, cfg.LLM.RemoteEnabled())
	assert.False(t, cfg.Advisor.ShareSnapshot)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, "transcripts.db", filepath.Base(cfg.Archive.Path))
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "agri.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: ollama
  endpoint: http://ollama:11434
  model: llama3.2
advisor:
  share_snapshot: true
log:
  level: debug
server:
  addr: ":9000"
archive:
  enabled: false
`), 0o644))

	t.Setenv("AGRI_HTTP_ADDR", ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOllama, cfg.LLM.Provider)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.Endpoint)
	assert.Equal(t, "llama3.2", cfg.LLM.Model)
	assert.True(t, cfg.LLM.RemoteEnabled())
	assert.True(t, cfg.Advisor.ShareSnapshot)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format, "unset yaml keys keep defaults")
	assert.Equal(t, ":9100", cfg.Server.Addr, "env wins over file")
	assert.False(t, cfg.Archive.Enabled)
	assert.Greater(t, cfg.LLM.Tasks[llm.TaskAdvise].MaxTokens, 0)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("AGRI_SHARE_SNAPSHOT=true\n"), 0o644))
	t.Setenv("AGRI_CONFIG", "")
	t.Cleanup(func() { os.Unsetenv("AGRI_SHARE_SNAPSHOT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Advisor.ShareSnapshot)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_YAMLTimeoutReachesAdviseCalls(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("AGRI_LLM_TIMEOUT_MS", "")
	path := filepath.Join(dir, "agri.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  timeout_ms: 750\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 750, cfg.LLM.TaskTimeout(llm.TaskAdvise))
}
