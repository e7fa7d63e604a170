package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aspenhq/aspen/internal/llm"
)

// Config for the OpenAI-compatible chat completions client.
type Config struct {
	APIKey      string        // falls back to env OPENAI_API_KEY
	BaseURL     string        // default per provider catalog
	Model       string        // e.g. "gpt-4o-mini"
	Provider    string        // catalog name; drives capability flags
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
}

// Client implements llm.Completer against any OpenAI-compatible
// /chat/completions endpoint.
type Client struct {
	cfg      Config
	features llm.Features
	http     *http.Client
	log      *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Provider == "" {
		cfg.Provider = llm.ProviderOpenAI
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = llm.DefaultBaseURL(cfg.Provider)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg,
		features: llm.ProviderFeatures(cfg.Provider),
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      logger,
	}
}

func (c *Client) Features() llm.Features {
	return c.features
}
