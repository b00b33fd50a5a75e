package llm

import (
	"os"
	"strconv"
	"strings"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskAdvise TaskType = "advise"
	TaskProbe  TaskType = "probe"
)

// Provider names the remote text-generation backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOllama Provider = "ollama"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutMs   int     `yaml:"timeout_ms"` // overrides global if > 0
}

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Enabled   bool                    `yaml:"enabled"`
	LogCalls  bool                    `yaml:"log_calls"`
	Provider  Provider                `yaml:"provider"`
	Endpoint  string                  `yaml:"endpoint"`
	APIKey    string                  `yaml:"api_key"`
	Model     string                  `yaml:"model"`
	TimeoutMs int                     `yaml:"timeout_ms"`
	Tasks     map[TaskType]TaskConfig `yaml:"tasks"`
}

// DefaultConfig returns an LLMConfig with sensible defaults. The remote
// tier is enabled but stays inert for Gemini until an API key is set.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Enabled:   true,
		LogCalls:  false,
		Provider:  ProviderGemini,
		Endpoint:  "",
		Model:     "gemini-2.0-flash",
		TimeoutMs: 15000,
		Tasks: map[TaskType]TaskConfig{
			TaskAdvise: {Temperature: 0.7, MaxTokens: 1024},
			TaskProbe:  {Temperature: 0, MaxTokens: 1, TimeoutMs: 2000},
		},
	}
}

// RemoteEnabled reports whether the remote tier should be attempted at all.
// Gemini needs an API key; Ollama only needs an endpoint.
func (c LLMConfig) RemoteEnabled() bool {
	if !c.Enabled {
		return false
	}
	switch c.Provider {
	case ProviderGemini:
		return c.APIKey != ""
	case ProviderOllama:
		return c.Endpoint != ""
	default:
		return false
	}
}

// LoadConfig reads LLM configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// ApplyEnv overlays AGRI_LLM_* environment variables onto cfg.
func ApplyEnv(cfg *LLMConfig) {
	if v := os.Getenv("AGRI_LLM_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("AGRI_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("AGRI_LLM_PROVIDER"); v != "" {
		cfg.Provider = Provider(strings.ToLower(v))
	}
	if v := os.Getenv("AGRI_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("AGRI_LLM_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("AGRI_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("AGRI_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}

	applyTaskTimeoutEnv(cfg, TaskAdvise, "AGRI_LLM_ADVISE_TIMEOUT_MS")
	if v := os.Getenv("AGRI_LLM_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 2 {
			tc := cfg.Tasks[TaskAdvise]
			tc.Temperature = f
			cfg.setTask(TaskAdvise, tc)
		}
	}
	if v := os.Getenv("AGRI_LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			tc := cfg.Tasks[TaskAdvise]
			tc.MaxTokens = n
			cfg.setTask(TaskAdvise, tc)
		}
	}
}

// TaskTimeout returns the effective timeout for a given task type.
// Uses the task-specific timeout if set, otherwise the global timeout.
func (c LLMConfig) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

func (c *LLMConfig) setTask(task TaskType, tc TaskConfig) {
	if c.Tasks == nil {
		c.Tasks = map[TaskType]TaskConfig{}
	}
	c.Tasks[task] = tc
}

func applyTaskTimeoutEnv(cfg *LLMConfig, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.setTask(task, tc)
}
