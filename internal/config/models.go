package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ilogger "explab/internal/logger"

	"github.com/goccy/go-json"
)

// ModelEndpoint describes where a chat model is served and how to reach it.
type ModelEndpoint struct {
	ModelURL  string `json:"model_url"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
	// MaxConcurrency caps in-flight requests a single serving instance
	// accepts; zero means the server decides.
	MaxConcurrency int `json:"max_concurrency,omitempty"`
}

// ModelsConfig is the on-disk shape of ~/.explab/models.json.
type ModelsConfig struct {
	Endpoints map[string]ModelEndpoint `json:"endpoints"`
}

var defaultModelsConfig = ModelsConfig{
	Endpoints: map[string]ModelEndpoint{
		"gpt-4o":               {ModelURL: "https://api.openai.com/v1", APIKeyEnv: "OPENAI_API_KEY"},
		"gpt-4o-mini":          {ModelURL: "https://api.openai.com/v1", APIKeyEnv: "OPENAI_API_KEY"},
		"llama-3.1-8b":         {ModelURL: "http://localhost:8000/v1", MaxConcurrency: 16},
		"llama-3.1-70b":        {ModelURL: "http://localhost:8001/v1", MaxConcurrency: 8},
		"mixtral-8x22b":        {ModelURL: "http://localhost:8002/v1", MaxConcurrency: 8},
		"claude-3-5-sonnet":    {ModelURL: "https://api.anthropic.com/v1", APIKeyEnv: "ANTHROPIC_API_KEY"},
		"deepseek-coder-v2":    {ModelURL: "http://localhost:8003/v1", MaxConcurrency: 16},
		"qwen-2.5-72b-instruct": {ModelURL: "http://localhost:8004/v1", MaxConcurrency: 8},
	},
}

var (
	modelsConfigOnce   sync.Once
	modelsConfigCached *ModelsConfig
)

func modelsConfig() *ModelsConfig {
	modelsConfigOnce.Do(func() {
		modelsConfigCached = loadModelsConfig()
	})
	if modelsConfigCached == nil {
		return &defaultModelsConfig
	}
	return modelsConfigCached
}

func loadModelsConfig() *ModelsConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		ilogger.LogWarn(fmt.Sprintf("Failed to resolve home directory for models config: %v; using defaults", err))
		return &defaultModelsConfig
	}

	configPath := filepath.Join(home, ".explab", "models.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			ilogger.LogWarn(fmt.Sprintf("Failed to read models config %s: %v; using defaults", configPath, err))
		}
		return &defaultModelsConfig
	}

	var cfg ModelsConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		ilogger.LogWarn(fmt.Sprintf("Failed to parse models config %s: %v; using defaults", configPath, err))
		return &defaultModelsConfig
	}

	// Merge with defaults so a partial file doesn't hide known models.
	if cfg.Endpoints == nil {
		cfg.Endpoints = make(map[string]ModelEndpoint, len(defaultModelsConfig.Endpoints))
	}
	for name, endpoint := range defaultModelsConfig.Endpoints {
		if _, exists := cfg.Endpoints[name]; !exists {
			cfg.Endpoints[name] = endpoint
		}
	}

	return &cfg
}

// LookupModelEndpoint returns the serving endpoint for a model name.
func LookupModelEndpoint(modelName string) (ModelEndpoint, bool) {
	name := strings.TrimSpace(modelName)
	if name == "" {
		return ModelEndpoint{}, false
	}
	endpoint, ok := modelsConfig().Endpoints[name]
	return endpoint, ok
}

// ModelEndpointURL returns the endpoint URL for a model, or "" when the
// model is not in the table.
func ModelEndpointURL(modelName string) string {
	endpoint, ok := LookupModelEndpoint(modelName)
	if !ok {
		return ""
	}
	return strings.TrimSpace(endpoint.ModelURL)
}

func ResetModelsConfigCacheForTest() {
	modelsConfigCached = nil
	modelsConfigOnce = sync.Once{}
}
