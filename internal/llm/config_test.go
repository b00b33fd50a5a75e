package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_AdviseUsesGlobalTimeout(t *testing.T) {
	cfg := DefaultConfig()
	assert.Zero(t, cfg.Tasks[TaskAdvise].TimeoutMs)
	assert.Equal(t, 15000, cfg.TaskTimeout(TaskAdvise))
	assert.Equal(t, 2000, cfg.TaskTimeout(TaskProbe))

	cfg.TimeoutMs = 4000
	assert.Equal(t, 4000, cfg.TaskTimeout(TaskAdvise))
	assert.Equal(t, 2000, cfg.TaskTimeout(TaskProbe), "probe keeps its own timeout")
}

func TestApplyEnv_GlobalTimeoutReachesAdvise(t *testing.T) {
	t.Setenv("AGRI_LLM_TIMEOUT_MS", "300")

	cfg := LoadConfig()
	assert.Equal(t, 300, cfg.TimeoutMs)
	assert.Equal(t, 300, cfg.TaskTimeout(TaskAdvise))
}

func TestRemoteEnabled(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.RemoteEnabled(), "gemini without key stays local")

	cfg.APIKey = "k"
	assert.True(t, cfg.RemoteEnabled())

	cfg.Enabled = false
	assert.False(t, cfg.RemoteEnabled())

	cfg = DefaultConfig()
	cfg.Provider = ProviderOllama
	cfg.Endpoint = "http://localhost:11434"
	assert.True(t, cfg.RemoteEnabled())

	cfg.Provider = "bogus"
	assert.False(t, cfg.RemoteEnabled())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("AGRI_LLM_PROVIDER", "OLLAMA")
	t.Setenv("AGRI_LLM_ENDPOINT", "http://example:11434")
	t.Setenv("AGRI_LLM_MODEL", "llama3.2")
	t.Setenv("GEMINI_API_KEY", "from-gemini")
	t.Setenv("AGRI_LLM_ADVISE_TIMEOUT_MS", "2500")
	t.Setenv("AGRI_LLM_TEMPERATURE", "0.2")
	t.Setenv("AGRI_LLM_MAX_TOKENS", "300")
	t.Setenv("AGRI_LLM_TIMEOUT_MS", "nope")

	cfg := LoadConfig()
	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, "http://example:11434", cfg.Endpoint)
	assert.Equal(t, "llama3.2", cfg.Model)
	assert.Equal(t, "from-gemini", cfg.APIKey)
	assert.Equal(t, 2500, cfg.TaskTimeout(TaskAdvise))
	assert.Equal(t, 0.2, cfg.Tasks[TaskAdvise].Temperature)
	assert.Equal(t, 300, cfg.Tasks[TaskAdvise].MaxTokens)
	assert.Equal(t, 15000, cfg.TimeoutMs, "invalid values are ignored")
}

func TestApplyEnv_ExplicitKeyWinsOverGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "a")
	t.Setenv("AGRI_LLM_API_KEY", "b")
	assert.Equal(t, "b", LoadConfig().APIKey)
}
