package conf

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	z "github.com/Oudwins/zog"
)

type Config struct {
	Version  string         `json:"-"`
	Server   ServerConfig   `json:"server"`
	Model    ModelConfig    `json:"model"`
	Platform PlatformConfig `json:"platform"`
	Tasks    TasksConfig    `json:"tasks"`
}

type ServerConfig struct {
	DataDir string `json:"data_dir"`
}

type ModelConfig struct {
	Name           string `json:"name"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxIterations  int    `json:"max_iterations"`
}

type PlatformConfig struct {
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

type TasksConfig struct {
	TTLHours           int `json:"ttl_hours"`
	SweepIntervalHours int `json:"sweep_interval_hours"`
}

var serverSchema = z.Struct(z.Shape{
	"DataDir": z.String().Default("~/.reify").Transform(expandPathTransform),
})

var modelSchema = z.Struct(z.Shape{
	"Name":           z.String().Default("gpt-4o"),
	"TimeoutSeconds": z.Int().Default(120),
	"MaxIterations":  z.Int().Default(30),
})

var platformSchema = z.Struct(z.Shape{
	"BaseURL":        z.String().Default("https://staging.avniproject.org"),
	"TimeoutSeconds": z.Int().Default(30),
})

var tasksSchema = z.Struct(z.Shape{
	"TTLHours":           z.Int().Default(24),
	"SweepIntervalHours": z.Int().Default(12),
})

var ConfigSchema = z.Struct(z.Shape{
	"server":   serverSchema,
	"model":    modelSchema,
	"platform": platformSchema,
	"tasks":    tasksSchema,
})

var config *Config

func GetConfig() *Config {
	if config == nil {
		defaults := &Config{}
		if err := ConfigSchema.Parse(map[string]any{}, defaults); err != nil {
			log.Fatal("[Reify] Failed to parse config", err)
		}
		defaults.Version = "0.1.0"

		configPath := filepath.Join(filepath.Clean(defaults.Server.DataDir), "reify.json")
		data, err := os.ReadFile(configPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				config = defaults
				return config
			}
			log.Fatal("[Reify] Failed to read config file", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			config = defaults
			return config
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Fatal("[Reify] Failed to parse config file", err)
		}
		parsed := &Config{}
		if err := ConfigSchema.Parse(payload, parsed); err != nil {
			log.Fatal("[Reify] Failed to parse config", err)
		}
		parsed.Version = defaults.Version
		config = parsed
	}

	return config
}

// Reset clears the cached config. Test helper.
func Reset() {
	config = nil
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := expandPath(*ptr)
	*ptr = expanded
	return err
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
