package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Paperless: PaperlessConfig{
			BaseURL: "http://paperless.local:8000",
			Token:   "secret",
			Tags: TagNames{
				Queue:     "$ai-queue",
				Processed: "$ai-processed",
				Review:    "$ai-review",
				Error:     "$ai-error",
			},
		},
		Metadata: MetadataConfig{SetTitle: true},
		AI: AIConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"PAPERLESS_BASE_URL", "PAPERLESS_URL", "PAPERLESS_API_TOKEN", "PAPERLESS_TOKEN",
		"ASPEN_QUEUE_TAG", "ASPEN_PROCESSED_TAG", "ASPEN_REVIEW_TAG", "ASPEN_ERROR_TAG",
		"ASPEN_SET_TITLE", "ASPEN_SET_DOCTYPE", "ASPEN_ALLOW_NEW_CORRESPONDENTS",
		"ASPEN_UPLOAD_ORIGINAL", "ASPEN_AI_PROVIDER", "ASPEN_AI_TIMEOUT",
		"ASPEN_WATCH", "LOG_LEVEL", "ASPEN_PROMPTS_DIR",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "$ai-queue", cfg.Paperless.Tags.Queue)
	assert.Equal(t, "$ai-processed", cfg.Paperless.Tags.Processed)
	assert.Equal(t, "$ai-review", cfg.Paperless.Tags.Review)
	assert.Equal(t, "$ai-error", cfg.Paperless.Tags.Error)
	assert.True(t, cfg.Metadata.SetTitle)
	assert.True(t, cfg.Metadata.SetDoctype)
	assert.False(t, cfg.Metadata.AllowNewCorrespondents)
	assert.False(t, cfg.AI.UploadOriginal)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 120*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 0, cfg.Watch.IntervalMinutes)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "prompts", cfg.Prompts.Dir)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PAPERLESS_BASE_URL", "")
	t.Setenv("PAPERLESS_URL", "http://fallback:8000")
	t.Setenv("ASPEN_SET_DOCTYPE", "off")
	t.Setenv("ASPEN_ALLOW_NEW_CORRESPONDENTS", "YES")
	t.Setenv("ASPEN_AI_PROVIDER", "OpenRouter")
	t.Setenv("ASPEN_AI_TEMPERATURE", "0.7")
	t.Setenv("ASPEN_AI_TIMEOUT", "45s")
	t.Setenv("ASPEN_WATCH", " 15 ")

	cfg := LoadConfig()

	assert.Equal(t, "http://fallback:8000", cfg.Paperless.BaseURL)
	assert.False(t, cfg.Metadata.SetDoctype)
	assert.True(t, cfg.Metadata.AllowNewCorrespondents)
	assert.Equal(t, "openrouter", cfg.AI.Provider)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 0.0001)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 15, cfg.Watch.IntervalMinutes)
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{value: "true", def: false, want: true},
		{value: "1", def: false, want: true},
		{value: "Yes", def: false, want: true},
		{value: "Y", def: false, want: true},
		{value: "ON", def: false, want: true},
		{value: "false", def: true, want: false},
		{value: "0", def: true, want: false},
		{value: "no", def: true, want: false},
		{value: "off", def: true, want: false},
		{value: " on ", def: false, want: true},
		{value: "garbage", def: true, want: true},
		{value: "garbage", def: false, want: false},
		{value: "", def: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.value+"/"+map[bool]string{true: "def-true", false: "def-false"}[tt.def], func(t *testing.T) {
			t.Setenv("ASPEN_TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, getEnvAsBool("ASPEN_TEST_BOOL", tt.def))
		})
	}
}

func TestMetadataConfigEnabledFields(t *testing.T) {
	all := MetadataConfig{SetTitle: true, SetCorrespondent: true, SetDate: true, SetDoctype: true}
	assert.Equal(t, []string{"title", "correspondent", "date", "doctype"}, all.EnabledFields())

	some := MetadataConfig{SetDate: true, SetDoctype: true}
	assert.Equal(t, []string{"date", "doctype"}, some.EnabledFields())

	assert.Empty(t, MetadataConfig{}.EnabledFields())
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("rejects missing base URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Paperless.BaseURL = ""
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
	})

	t.Run("rejects non-http base URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.Paperless.BaseURL = "paperless.local:8000"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		cfg := validConfig()
		cfg.Paperless.Token = ""
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
	})

	t.Run("rejects missing model", func(t *testing.T) {
		cfg := validConfig()
		cfg.AI.Model = ""
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
	})

	t.Run("rejects unknown provider", func(t *testing.T) {
		cfg := validConfig()
		cfg.AI.Provider = "bedrock"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ASPEN_AI_PROVIDER")
	})

	t.Run("openai-compatible needs a base URL", func(t *testing.T) {
		cfg := validConfig()
		cfg.AI.Provider = "openai-compatible"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)

		cfg.AI.BaseURL = "http://llm.local:8080/v1"
		require.NoError(t, cfg.Validate())
	})

	t.Run("rejects no enabled extractors", func(t *testing.T) {
		cfg := validConfig()
		cfg.Metadata = MetadataConfig{}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
	})

	t.Run("rejects duplicate tag names", func(t *testing.T) {
		cfg := validConfig()
		cfg.Paperless.Tags.Review = cfg.Paperless.Tags.Processed
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unique")
	})

	t.Run("rejects blank tag names", func(t *testing.T) {
		cfg := validConfig()
		cfg.Paperless.Tags.Error = "   "
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not be empty")
	})
}
