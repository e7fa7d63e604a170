package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aspenhq/aspen/internal/llm"
)

// Config holds all application configuration.
type Config struct {
	Paperless PaperlessConfig
	Metadata  MetadataConfig
	AI        AIConfig
	Watch     WatchConfig
	Log       LogConfig
	Prompts   PromptsConfig
}

// PaperlessConfig holds document-store connection settings and the workflow
// tag names.
type PaperlessConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Tags    TagNames
}

// TagNames are the workflow tag names resolved to ids at startup.
type TagNames struct {
	Queue     string
	Processed string
	Review    string
	Error     string
}

// MetadataConfig selects the enabled extractors and the entity-creation
// policies.
type MetadataConfig struct {
	SetTitle         bool
	SetCorrespondent bool
	SetDate          bool
	SetDoctype       bool

	AllowNewCorrespondents bool
	AllowNewDocumentTypes  bool
}

// EnabledFields lists the enabled extractors in field-declaration order.
func (m MetadataConfig) EnabledFields() []string {
	var fields []string
	if m.SetTitle {
		fields = append(fields, "title")
	}
	if m.SetCorrespondent {
		fields = append(fields, "correspondent")
	}
	if m.SetDate {
		fields = append(fields, "date")
	}
	if m.SetDoctype {
		fields = append(fields, "doctype")
	}
	return fields
}

// AIConfig holds completion-provider settings.
type AIConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	// UploadOriginal requests the file-attachment retry; it is effective
	// only when the provider supports images.
	UploadOriginal bool
}

// WatchConfig holds the optional schedule.
type WatchConfig struct {
	IntervalMinutes int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
	Dir   string
}

// PromptsConfig holds the prompt-template directory.
type PromptsConfig struct {
	Dir string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Paperless: PaperlessConfig{
			BaseURL: getEnvFirst([]string{"PAPERLESS_BASE_URL", "PAPERLESS_URL"}, ""),
			Token:   getEnvFirst([]string{"PAPERLESS_API_TOKEN", "PAPERLESS_TOKEN"}, ""),
			Timeout: getEnvAsDuration("PAPERLESS_TIMEOUT", 30*time.Second),
			Tags: TagNames{
				Queue:     getEnv("ASPEN_QUEUE_TAG", "$ai-queue"),
				Processed: getEnv("ASPEN_PROCESSED_TAG", "$ai-processed"),
				Review:    getEnv("ASPEN_REVIEW_TAG", "$ai-review"),
				Error:     getEnv("ASPEN_ERROR_TAG", "$ai-error"),
			},
		},
		Metadata: MetadataConfig{
			SetTitle:               getEnvAsBool("ASPEN_SET_TITLE", true),
			SetCorrespondent:       getEnvAsBool("ASPEN_SET_CORRESPONDENT", true),
			SetDate:                getEnvAsBool("ASPEN_SET_DATE", true),
			SetDoctype:             getEnvAsBool("ASPEN_SET_DOCTYPE", true),
			AllowNewCorrespondents: getEnvAsBool("ASPEN_ALLOW_NEW_CORRESPONDENTS", false),
			AllowNewDocumentTypes:  getEnvAsBool("ASPEN_ALLOW_NEW_DOCTYPES", false),
		},
		AI: AIConfig{
			Provider:       strings.ToLower(getEnv("ASPEN_AI_PROVIDER", llm.ProviderOpenAI)),
			Model:          getEnv("ASPEN_AI_MODEL", ""),
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("ASPEN_AI_BASE_URL", ""),
			Temperature:    getEnvAsFloat32("ASPEN_AI_TEMPERATURE", 0.0),
			Timeout:        getEnvAsDuration("ASPEN_AI_TIMEOUT", 120*time.Second),
			UploadOriginal: getEnvAsBool("ASPEN_UPLOAD_ORIGINAL", false),
		},
		Watch: WatchConfig{
			IntervalMinutes: getEnvAsInt("ASPEN_WATCH", 0),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			Dir:   getEnv("ASPEN_LOG_DIR", ""),
		},
		Prompts: PromptsConfig{
			Dir: getEnv("ASPEN_PROMPTS_DIR", "prompts"),
		},
	}
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.Paperless.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "PAPERLESS_BASE_URL is required", ErrInvalidInput)
	}
	if !strings.HasPrefix(c.Paperless.BaseURL, "http://") && !strings.HasPrefix(c.Paperless.BaseURL, "https://") {
		return NewAppError("CONFIG_ERROR", "PAPERLESS_BASE_URL must be an http(s) URL", ErrInvalidInput)
	}
	if c.Paperless.Token == "" {
		return NewAppError("CONFIG_ERROR", "PAPERLESS_API_TOKEN is required", ErrInvalidInput)
	}
	if c.AI.Model == "" {
		return NewAppError("CONFIG_ERROR", "ASPEN_AI_MODEL is required", ErrInvalidInput)
	}
	if !llm.KnownProvider(c.AI.Provider) {
		msg := fmt.Sprintf("ASPEN_AI_PROVIDER must be one of: %s", strings.Join(llm.ProviderNames(), ", "))
		return NewAppError("CONFIG_ERROR", msg, ErrInvalidInput)
	}
	if c.AI.Provider == llm.ProviderOpenAICompatible && c.AI.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "ASPEN_AI_BASE_URL is required for the openai-compatible provider", ErrInvalidInput)
	}
	if len(c.Metadata.EnabledFields()) == 0 {
		return NewAppError("CONFIG_ERROR", "enable at least one extractor via the ASPEN_SET_* variables", ErrInvalidInput)
	}

	names := []string{c.Paperless.Tags.Queue, c.Paperless.Tags.Processed, c.Paperless.Tags.Review, c.Paperless.Tags.Error}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return NewAppError("CONFIG_ERROR", "workflow tag names must not be empty", ErrInvalidInput)
		}
		if _, dup := seen[name]; dup {
			return NewAppError("CONFIG_ERROR", "workflow tag names must be unique", ErrInvalidInput)
		}
		seen[name] = struct{}{}
	}
	return nil
}

var (
	envTrueValues  = map[string]struct{}{"true": {}, "1": {}, "yes": {}, "y": {}, "on": {}}
	envFalseValues = map[string]struct{}{"false": {}, "0": {}, "no": {}, "n": {}, "off": {}}
)

// Helper functions for environment variable parsing.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFirst(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return defaultValue
	}
	if _, ok := envTrueValues[value]; ok {
		return true
	}
	if _, ok := envFalseValues[value]; ok {
		return false
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(strings.TrimSpace(value), 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}
